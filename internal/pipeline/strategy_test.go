package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/autolora/internal/parser"
)

func candidate(dir, name string) Candidate {
	path := filepath.Join(dir, name)
	return Candidate{Path: path, Rel: name, Base: strings.TrimSuffix(path, filepath.Ext(path))}
}

func TestCivitaiInfoStrategy_PrefersIndex(t *testing.T) {
	dir := t.TempDir()
	c := candidate(dir, "a.safetensors")
	writeFile(t, c.Base+parser.CivitaiInfoSuffix, []byte(`{"trainedWords": ["from file"]}`))

	got, err := NewCivitaiInfoStrategy(parser.Index{c.Base + parser.CivitaiInfoSuffix: {"from index", " "}}).
		Discover(context.Background(), c)

	require.NoError(t, err)
	assert.Equal(t, "from index", got)
}

func TestCivitaiInfoStrategy_LazyIndex(t *testing.T) {
	dir := t.TempDir()
	a, b := candidate(dir, "a.safetensors"), candidate(dir, "b.safetensors")
	calls := 0
	s := NewLazyCivitaiInfoStrategy(func() parser.Index {
		calls++
		return parser.Index{a.Base + parser.CivitaiInfoSuffix: {"lazy"}}
	})
	require.Zero(t, calls)

	got, err := s.Discover(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "lazy", got)

	got, err = s.Discover(context.Background(), b)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, calls)
}

func TestCivitaiInfoStrategy_Missing(t *testing.T) {
	got, err := NewCivitaiInfoStrategy(nil).Discover(context.Background(), candidate(t.TempDir(), "a.safetensors"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedStrategy(t *testing.T) {
	dir := t.TempDir()
	s := NewEmbeddedStrategy(nil)

	ckpt := candidate(dir, "a.ckpt")
	writeFile(t, ckpt.Path, safetensors(t, map[string]string{parser.KeyTriggerPhrase: "ignored"}))
	got, err := s.Discover(context.Background(), ckpt)
	require.NoError(t, err)
	assert.Empty(t, got)

	bare := candidate(dir, "bare.safetensors")
	writeFile(t, bare.Path, safetensors(t, nil))
	got, err = s.Discover(context.Background(), bare)
	require.NoError(t, err)
	assert.Empty(t, got)

	garbage := candidate(dir, "garbage.safetensors")
	writeFile(t, garbage.Path, []byte("abc"))
	_, err = s.Discover(context.Background(), garbage)
	assert.Error(t, err)

	both := candidate(dir, "both.safetensors")
	writeFile(t, both.Path, safetensors(t, map[string]string{
		parser.KeyTriggerPhrase: "direct",
		parser.KeyTagFrequency:  `{"a": {"tag": 1}}`,
	}))
	got, err = s.Discover(context.Background(), both)
	require.NoError(t, err)
	assert.Equal(t, "direct", got)
}

func TestTextSidecarStrategy(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: " foo, bar \n", want: "foo, bar"},
		{name: "at limit", content: strings.Repeat("é", 200), want: ""},
		{name: "under limit", content: strings.Repeat("é", 199), want: strings.Repeat("é", 199)},
		{name: "blank", content: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate(dir, strings.ReplaceAll(tt.name, " ", "_")+".ckpt")
			writeFile(t, c.Base+parser.TextSidecarSuffix, []byte(tt.content))

			got, err := TextSidecarStrategy{}.Discover(context.Background(), c)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
