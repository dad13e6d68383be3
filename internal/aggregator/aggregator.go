// Package aggregator reduces kohya-style tag frequency tables to trigger
// phrases.
package aggregator

import (
	"sort"
	"strings"

	"github.com/strrl/autolora/internal/parser"
)

type Config struct {
	// TagsPerDataset is how many of the most frequent tags each dataset
	// contributes.
	TagsPerDataset int
	// MinCount drops tags seen fewer times than this.
	MinCount float64
}

func DefaultConfig() Config {
	return Config{
		TagsPerDataset: 1,
		MinCount:       0,
	}
}

type Aggregator struct {
	config Config
}

func NewAggregator(cfg Config) *Aggregator {
	if cfg.TagsPerDataset <= 0 {
		cfg.TagsPerDataset = 1
	}
	return &Aggregator{config: cfg}
}

type tagCount struct {
	tag   string
	count float64
}

// TopTags takes the most frequent tags of every dataset and returns them
// de-duplicated. Datasets are visited in name order and ties are broken by
// tag name, so the result is stable across runs.
func (a *Aggregator) TopTags(freq parser.TagFrequency) []string {
	datasets := make([]string, 0, len(freq))
	for name := range freq {
		datasets = append(datasets, name)
	}
	sort.Strings(datasets)

	seen := make(map[string]bool)
	var tags []string
	for _, name := range datasets {
		for _, tc := range a.rankDataset(freq[name]) {
			if seen[tc.tag] {
				continue
			}
			seen[tc.tag] = true
			tags = append(tags, tc.tag)
		}
	}
	return tags
}

func (a *Aggregator) rankDataset(tags map[string]float64) []tagCount {
	ranked := make([]tagCount, 0, len(tags))
	for tag, count := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || count < a.config.MinCount {
			continue
		}
		ranked = append(ranked, tagCount{tag: tag, count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].tag < ranked[j].tag
	})

	if len(ranked) > a.config.TagsPerDataset {
		ranked = ranked[:a.config.TagsPerDataset]
	}
	return ranked
}
