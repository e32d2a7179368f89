// Package app assembles a service from loaded configuration.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/cache"
	"github.com/neilberkman/ccsearch/internal/config"
	"github.com/neilberkman/ccsearch/internal/db"
	"github.com/neilberkman/ccsearch/internal/discovery"
	"github.com/neilberkman/ccsearch/internal/index"
	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/parser"
	"github.com/neilberkman/ccsearch/internal/search"
	"github.com/neilberkman/ccsearch/internal/service"
	"github.com/neilberkman/ccsearch/internal/stats"
)

// App owns a service and the resources behind it
type App struct {
	Service *service.Service
	Config  *config.Config
	Logger  *zap.Logger

	db *db.DB
}

// Open builds the service described by cfg. When snapshots are enabled but
// the database cannot be opened, statistics are computed uncached and a
// warning is logged.
func Open(cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	mode, err := search.ParseMode(cfg.Search.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("search.default_mode: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}

	var snapshots *cache.SnapshotCache
	if cfg.Cache.Snapshots {
		database, err := db.New(cfg.Cache.SnapshotPath)
		if err != nil {
			logger.Warn("stats snapshots disabled",
				zap.String("path", cfg.Cache.SnapshotPath), zap.Error(err))
		} else {
			a.db = database
			logger.Debug("stats snapshots enabled", zap.String("path", database.Path()))
			snapshots = cache.NewSnapshotCache(database, logger.Named("snapshots"))
		}
	}

	a.Service = service.New(service.Options{
		Scanner:     discovery.NewScanner(cfg.Projects.Root, logger.Named("discovery")),
		Parser:      parser.New(parser.WithLogger(logger.Named("parser"))),
		Engine:      search.NewEngine(logger.Named("search"), cfg.Search.PreviewLength),
		Aggregator:  stats.NewAggregator(stats.WithLogger(logger.Named("stats"))),
		Indexes:     cache.NewTTL[*index.Index]("index", cfg.Cache.MaxEntries, cfg.Cache.TTL, logger.Named("cache")),
		Snapshots:   snapshots,
		Logger:      logger,
		MaxResults:  cfg.Search.MaxResults,
		Workers:     cfg.Search.Workers,
		DefaultMode: mode,
	})
	return a, nil
}

// Close releases the snapshot database, if one was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
