package cmd

import (
	"go.uber.org/zap"

	"github.com/strrl/autolora/internal/civitai"
	"github.com/strrl/autolora/internal/collection"
	"github.com/strrl/autolora/internal/db"
	"github.com/strrl/autolora/internal/manager"
	"github.com/strrl/autolora/internal/parser"
	"github.com/strrl/autolora/internal/pipeline"
	"github.com/strrl/autolora/internal/store"
)

func newStore() *store.Store {
	return store.New(cfg.Store.Path, logger)
}

func newCollection() *collection.Collection {
	return collection.New(cfg.Loras.Dirs, cfg.Loras.Extensions)
}

func newPipeline(st *store.Store) *pipeline.Pipeline {
	pc := pipeline.Config{
		Store:      st,
		Remote:     civitai.NewClient(cfg.CivitaiConfig()),
		Extensions: cfg.Loras.Extensions,
		Logger:     logger,
	}

	if cfg.Scan.UseIndex {
		database, err := db.GetDB()
		if err != nil {
			logger.Debug("duckdb unavailable, sidecar index disabled", zap.Error(err))
		} else {
			pc.Indexer = parser.NewIndexer(database)
		}
	}

	return pipeline.New(pc)
}

func newManager() *manager.Manager {
	st := newStore()
	return manager.New(st, newPipeline(st), newCollection().Root(), logger)
}
