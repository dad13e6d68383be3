package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/strrl/autolora/internal/store"
)

func TestResolver_Resolve(t *testing.T) {
	table := store.Table{"SDXL/colors.safetensors": "red, blue, green"}

	tests := []struct {
		name     string
		lora     string
		mode     Mode
		config   string
		expected string
	}{
		{name: "all", lora: "SDXL/colors.safetensors", mode: ModeAll, expected: "red, blue, green"},
		{name: "first", lora: "SDXL/colors.safetensors", mode: ModeFirst, expected: "red"},
		{name: "by index", lora: "SDXL/colors.safetensors", mode: ModeByIndex, config: "2,3", expected: "blue, green"},
		{name: "by index keeps given order", lora: "SDXL/colors.safetensors", mode: ModeByIndex, config: "3, 1", expected: "green, red"},
		{name: "by index skips out of range", lora: "SDXL/colors.safetensors", mode: ModeByIndex, config: "0,2,9,-1", expected: "blue"},
		{name: "by index malformed falls back to all", lora: "SDXL/colors.safetensors", mode: ModeByIndex, config: "x,y", expected: "red, blue, green"},
		{name: "by index empty config falls back to all", lora: "SDXL/colors.safetensors", mode: ModeByIndex, config: "", expected: "red, blue, green"},
		{name: "custom ignores store", lora: "SDXL/colors.safetensors", mode: ModeCustom, config: "  my words ", expected: "my words"},
		{name: "custom without stored entry", lora: "SDXL/unknown.safetensors", mode: ModeCustom, config: "mine", expected: "mine"},
		{name: "none", lora: "SDXL/colors.safetensors", mode: ModeNone, expected: ""},
		{name: "absent entry", lora: "SDXL/unknown.safetensors", mode: ModeAll, expected: ""},
		{name: "absent entry first", lora: "SDXL/unknown.safetensors", mode: ModeFirst, expected: ""},
		{name: "leaf match", lora: "moved\\COLORS.safetensors", mode: ModeFirst, expected: "red"},
		{name: "none sentinel", lora: NoLoRA, mode: ModeAll, expected: ""},
		{name: "empty name", lora: "", mode: ModeAll, expected: ""},
	}

	r := NewResolver(table, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.lora, tt.mode, tt.config))
		})
	}
}

func TestResolver_EmptyStoredValue(t *testing.T) {
	r := NewResolver(store.Table{"a.safetensors": ""}, nil)

	assert.Equal(t, "", r.Resolve("a.safetensors", ModeAll, ""))
	assert.Equal(t, "", r.Resolve("a.safetensors", ModeFirst, ""))
	assert.Equal(t, "", r.Resolve("a.safetensors", ModeByIndex, "1"))
}

func TestResolver_WarnsOnAmbiguousLeaf(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewResolver(store.Table{
		"A/foo.safetensors": "from a",
		"B/foo.safetensors": "from b",
	}, zap.New(core))

	got := r.Resolve("C/foo.safetensors", ModeAll, "")

	assert.Equal(t, "from a", got)
	entries := logs.FilterMessage("ambiguous trigger lookup, using first candidate").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "A/foo.safetensors", entries[0].ContextMap()["chosen"])
}

func TestSelect_FirstOnEmptyList(t *testing.T) {
	assert.Equal(t, "", Select(" , ", ModeFirst, ""))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
	}{
		{"All", ModeAll},
		{"", ModeAll},
		{"first", ModeFirst},
		{"By Index", ModeByIndex},
		{"by-index", ModeByIndex},
		{"by_index", ModeByIndex},
		{"Custom Override", ModeCustom},
		{"custom", ModeCustom},
		{"None", ModeNone},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseMode("sometimes")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestMode_StringRoundTrip(t *testing.T) {
	for _, m := range Modes {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
}

func TestAutoMode(t *testing.T) {
	assert.Equal(t, ModeAll, AutoMode(true))
	assert.Equal(t, ModeNone, AutoMode(false))
}
