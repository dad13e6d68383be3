package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/strrl/autolora/internal/aggregator"
	"github.com/strrl/autolora/internal/civitai"
	"github.com/strrl/autolora/internal/parser"
)

// maxTextSidecarRunes rejects .txt sidecars that read like prose rather
// than a tag list.
const maxTextSidecarRunes = 200

// Candidate is one weights file under the scan root.
type Candidate struct {
	// Path is the absolute file path.
	Path string
	// Rel is the store key: the path relative to the root with forward
	// slashes.
	Rel string
	// Base is Path without its extension, the stem shared by sidecars.
	Base string
}

// Strategy is one discovery source. Discover returns "" with a nil error
// when the source simply has nothing for the file.
type Strategy interface {
	Name() string
	Discover(ctx context.Context, c Candidate) (string, error)
}

// Searcher is the remote model registry.
type Searcher interface {
	TrainedWords(ctx context.Context, query string) (string, error)
}

type CivitaiInfoStrategy struct {
	load  func() parser.Index
	once  sync.Once
	index parser.Index
}

func NewCivitaiInfoStrategy(index parser.Index) *CivitaiInfoStrategy {
	return &CivitaiInfoStrategy{index: index}
}

// NewLazyCivitaiInfoStrategy calls load once, on the first Discover. A nil
// index from load falls back to reading sidecars directly.
func NewLazyCivitaiInfoStrategy(load func() parser.Index) *CivitaiInfoStrategy {
	return &CivitaiInfoStrategy{load: load}
}

func (s *CivitaiInfoStrategy) Name() string { return "civitai_info" }

func (s *CivitaiInfoStrategy) Discover(_ context.Context, c Candidate) (string, error) {
	if s.load != nil {
		s.once.Do(func() { s.index = s.load() })
	}

	sidecar := c.Base + parser.CivitaiInfoSuffix
	if words, ok := s.index.Lookup(sidecar); ok {
		return joinWords(words), nil
	}

	info, err := parser.ReadCivitaiInfo(sidecar)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return joinWords(info.TrainedWords), nil
}

type EmbeddedStrategy struct {
	aggregator *aggregator.Aggregator
}

func NewEmbeddedStrategy(agg *aggregator.Aggregator) *EmbeddedStrategy {
	if agg == nil {
		agg = aggregator.NewAggregator(aggregator.DefaultConfig())
	}
	return &EmbeddedStrategy{aggregator: agg}
}

func (s *EmbeddedStrategy) Name() string { return "embedded" }

func (s *EmbeddedStrategy) Discover(_ context.Context, c Candidate) (string, error) {
	if !strings.EqualFold(filepath.Ext(c.Path), ".safetensors") {
		return "", nil
	}

	meta, err := parser.ReadSafetensorsMetadata(c.Path)
	if err != nil {
		if errors.Is(err, parser.ErrNoMetadata) {
			return "", nil
		}
		return "", err
	}

	if phrase := meta.TriggerPhrase(); phrase != "" {
		return phrase, nil
	}

	freq, err := meta.TagFrequency()
	if err != nil {
		return "", err
	}
	return strings.Join(s.aggregator.TopTags(freq), ", "), nil
}

type TextSidecarStrategy struct{}

func (TextSidecarStrategy) Name() string { return "text_sidecar" }

func (TextSidecarStrategy) Discover(_ context.Context, c Candidate) (string, error) {
	data, err := os.ReadFile(c.Base + parser.TextSidecarSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	content := strings.TrimSpace(string(data))
	if utf8.RuneCountInString(content) >= maxTextSidecarRunes {
		return "", nil
	}
	return content, nil
}

type RemoteStrategy struct {
	searcher Searcher
}

func NewRemoteStrategy(searcher Searcher) *RemoteStrategy {
	return &RemoteStrategy{searcher: searcher}
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) Discover(ctx context.Context, c Candidate) (string, error) {
	return s.searcher.TrainedWords(ctx, civitai.QueryFromFilename(filepath.Base(c.Path)))
}

func joinWords(words []string) string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, ", ")
}
