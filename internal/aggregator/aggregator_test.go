package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strrl/autolora/internal/parser"
)

func TestTopTags(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		freq parser.TagFrequency
		want []string
	}{
		{
			name: "highest per dataset",
			cfg:  DefaultConfig(),
			freq: parser.TagFrequency{
				"10_foo": {"foo style": 20, "1girl": 5},
				"5_bar":  {"bar": 3, "solo": 1},
			},
			want: []string{"foo style", "bar"},
		},
		{
			name: "duplicates across datasets collapse",
			cfg:  DefaultConfig(),
			freq: parser.TagFrequency{
				"a": {"shared": 9, "x": 1},
				"b": {"shared": 4, "y": 2},
			},
			want: []string{"shared"},
		},
		{
			name: "ties break by tag name",
			cfg:  DefaultConfig(),
			freq: parser.TagFrequency{"a": {"zeta": 3, "alpha": 3}},
			want: []string{"alpha"},
		},
		{
			name: "empty dataset contributes nothing",
			cfg:  DefaultConfig(),
			freq: parser.TagFrequency{"a": {}, "b": {"b": 1}},
			want: []string{"b"},
		},
		{
			name: "more tags per dataset",
			cfg:  Config{TagsPerDataset: 2},
			freq: parser.TagFrequency{"a": {"one": 3, "two": 2, "three": 1}},
			want: []string{"one", "two"},
		},
		{
			name: "min count filters",
			cfg:  Config{TagsPerDataset: 1, MinCount: 5},
			freq: parser.TagFrequency{"a": {"rare": 2}},
			want: nil,
		},
		{
			name: "nil table",
			cfg:  DefaultConfig(),
			freq: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewAggregator(tt.cfg).TopTags(tt.freq))
		})
	}
}
