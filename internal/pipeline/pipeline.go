// Package pipeline discovers trigger phrases for weights files that have no
// store entry yet. Each file is offered to the local strategies in order
// (civitai sidecar, embedded metadata, text sidecar) and optionally to the
// remote registry last; the first non-empty answer wins.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/strrl/autolora/internal/aggregator"
	"github.com/strrl/autolora/internal/parser"
	"github.com/strrl/autolora/internal/store"
)

var DefaultExtensions = []string{".safetensors", ".ckpt"}

type Config struct {
	Store *store.Store
	// Remote is used only by online scans. A nil Remote makes online scans
	// behave like local ones.
	Remote     Searcher
	Extensions []string
	// Indexer, when set, reads every .civitai.info under the root in one
	// query the first time a file needs a sidecar lookup.
	Indexer    *parser.Indexer
	Aggregator *aggregator.Aggregator
	Logger     *zap.Logger
}

type Pipeline struct {
	store      *store.Store
	remote     Searcher
	extensions []string
	indexer    *parser.Indexer
	embedded   *EmbeddedStrategy
	logger     *zap.Logger
}

// Result summarizes a scan. Found maps each newly stored key to its phrase.
type Result struct {
	Checked int
	Added   int
	Found   map[string]string
}

func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	return &Pipeline{
		store:      cfg.Store,
		remote:     cfg.Remote,
		extensions: exts,
		indexer:    cfg.Indexer,
		embedded:   NewEmbeddedStrategy(cfg.Aggregator),
		logger:     logger.Named("pipeline"),
	}
}

// Scan walks root and fills in store entries that are missing or empty.
// The store is written once at the end, and only when something was added.
// A cancelled context abandons the scan without writing anything.
func (p *Pipeline) Scan(ctx context.Context, root string, includeRemote bool) (Result, error) {
	result := Result{Found: make(map[string]string)}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return result, fmt.Errorf("failed to resolve root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return result, fmt.Errorf("failed to read collection root: %w", err)
	}
	// WalkDir does not descend a symlinked root.
	if absRoot, err = filepath.EvalSymlinks(absRoot); err != nil {
		return result, fmt.Errorf("failed to resolve root: %w", err)
	}

	if includeRemote && p.remote == nil {
		p.logger.Warn("online scan requested without a remote client, scanning locally")
		includeRemote = false
	}

	p.logger.Info("starting scan", zap.String("root", absRoot), zap.Bool("online", includeRemote))

	table := p.store.Load()
	strategies := p.strategies(absRoot, includeRemote)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			p.logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() && path != absRoot {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !p.isWeights(d.Name()) {
			return nil
		}

		result.Checked++

		c, err := newCandidate(absRoot, path)
		if err != nil || table[c.Rel] != "" {
			return nil
		}

		if found := p.discover(ctx, strategies, c); found != "" {
			table[c.Rel] = found
			result.Found[c.Rel] = found
			result.Added++
			p.logger.Info("trigger discovered", zap.String("file", c.Rel), zap.String("triggers", found))
		}
		return nil
	})

	if walkErr != nil {
		return result, fmt.Errorf("scan interrupted: %w", walkErr)
	}

	if result.Added > 0 {
		p.store.Save(table)
	}

	p.logger.Info("scan complete",
		zap.Int("checked", result.Checked),
		zap.Int("added", result.Added),
		zap.Bool("online", includeRemote),
	)
	return result, nil
}

func (p *Pipeline) strategies(root string, includeRemote bool) []Strategy {
	civitaiInfo := NewCivitaiInfoStrategy(nil)
	if p.indexer != nil {
		civitaiInfo = NewLazyCivitaiInfoStrategy(func() parser.Index {
			idx, err := p.indexer.Build(root)
			if err != nil {
				p.logger.Debug("sidecar index unavailable, reading sidecars one by one", zap.Error(err))
				return nil
			}
			p.logger.Debug("sidecar index built", zap.Int("sidecars", len(idx)))
			return idx
		})
	}

	strategies := []Strategy{
		civitaiInfo,
		p.embedded,
		TextSidecarStrategy{},
	}
	if includeRemote {
		strategies = append(strategies, NewRemoteStrategy(p.remote))
	}
	return strategies
}

func (p *Pipeline) discover(ctx context.Context, strategies []Strategy, c Candidate) string {
	for _, s := range strategies {
		if _, remote := s.(*RemoteStrategy); remote {
			p.logger.Info("searching online", zap.String("file", c.Rel))
		}

		found, err := s.Discover(ctx, c)
		if err != nil {
			if _, remote := s.(*RemoteStrategy); remote {
				p.logger.Warn("online search failed", zap.String("file", c.Rel), zap.Error(err))
			} else {
				p.logger.Debug("strategy failed",
					zap.String("strategy", s.Name()),
					zap.String("file", c.Rel),
					zap.Error(err),
				)
			}
			continue
		}

		if found = strings.TrimSpace(found); found != "" {
			return found
		}
	}
	return ""
}

func (p *Pipeline) isWeights(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range p.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func newCandidate(root, path string) (Candidate, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Candidate{}, err
	}
	rel = strings.ReplaceAll(filepath.ToSlash(rel), "\\", "/")
	return Candidate{
		Path: path,
		Rel:  rel,
		Base: strings.TrimSuffix(path, filepath.Ext(path)),
	}, nil
}
