package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/api/rest"
	"github.com/maccabipedia/basketbot/internal/cache"
	"github.com/maccabipedia/basketbot/internal/config"
	"github.com/maccabipedia/basketbot/internal/ingest/browser"
	"github.com/maccabipedia/basketbot/internal/ingest/feed"
	"github.com/maccabipedia/basketbot/internal/names"
	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/publisher"
	"github.com/maccabipedia/basketbot/internal/sink"
	"github.com/maccabipedia/basketbot/internal/source"
	"github.com/maccabipedia/basketbot/internal/source/basket"
	"github.com/maccabipedia/basketbot/internal/source/euroleague"
	"github.com/maccabipedia/basketbot/internal/store"
	"github.com/maccabipedia/basketbot/internal/store/repository"
	"github.com/maccabipedia/basketbot/internal/wiki"
)

const (
	connectRetries    = 5
	connectRetryDelay = 2 * time.Second
)

// app holds everything one process needs to run cycles.
type app struct {
	cfg      config.Config
	logger   *logging.Logger
	adapters []source.Adapter
	index    pipeline.IndexProvider
	runner   *pipeline.Runner

	records *repository.RecordRepository
	cycles  *repository.CycleRepository
	health  map[string]rest.HealthFunc

	closers []func()
}

// newApp wires sources, sink, index and observers. extra observers are
// appended after the persistent ones.
func newApp(ctx context.Context, cfg config.Config, logger *logging.Logger, extra ...pipeline.Observer) (*app, error) {
	a := &app{cfg: cfg, logger: logger, health: map[string]rest.HealthFunc{}}

	normalizer := names.New()
	if cfg.NamesFile != "" {
		n, err := names.Load(cfg.NamesFile)
		if err != nil {
			return nil, err
		}
		normalizer = n
	}

	pages := browser.NewClient(browser.Options{
		CIMode:   cfg.CIMode,
		Interval: browser.MinRequestInterval,
		Settle:   time.Second,
	}, logger)
	a.closers = append(a.closers, pages.Close)

	feeds := feed.NewClient(logger, feed.WithUserAgent(browser.UserAgent))
	loc := cfg.Location()

	if cfg.SourceEnabled(config.SourceBasket) {
		a.adapters = append(a.adapters, basket.New(feeds, pages, normalizer, loc, logger))
	}
	if cfg.SourceEnabled(config.SourceEuroleague) {
		a.adapters = append(a.adapters, euroleague.New(pages, normalizer, loc, logger))
	}

	wikiClient, err := wiki.NewClient(wiki.Config{
		APIURL:    cfg.WikiAPIURL,
		Username:  cfg.WikiUsername,
		Password:  cfg.WikiPassword,
		UserAgent: cfg.WikiUserAgent,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		recordSink pipeline.Sink = wikiClient
		observers  sink.Fanout
	)
	a.index = wikiClient

	if cfg.DryRun {
		recordSink = sink.NewDryRun(logger)
		logger.Info("dry run: records are logged, not uploaded")
	}

	if cfg.DatabaseURL != "" {
		db, err := connectWithRetry(ctx, logger, "database", func() (*store.Database, error) {
			return store.NewDatabase(ctx, cfg.DatabaseURL, logger)
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { db.Close() })
		if err := db.RunMigrations(ctx); err != nil {
			a.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		a.records = repository.NewRecordRepository(db.DB(), logger)
		a.cycles = repository.NewCycleRepository(db.DB())
		a.health["database"] = db.HealthCheck
	}

	if cfg.RedisURL != "" {
		rc, err := connectWithRetry(ctx, logger, "redis", func() (*cache.RedisCache, error) {
			return cache.NewRedisCache(ctx, cfg.RedisURL)
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { rc.Close() })
		a.health["redis"] = rc.HealthCheck

		guard := cache.NewPublishGuard(rc.Client(), cfg.PublishGuardTTL, logger)
		a.index = guard.Wrap(a.index)
		if !cfg.DryRun {
			observers = append(observers, guard, publisher.NewRedisStreamPublisher(rc.Client(), cfg.StreamMaxLen, logger))
		}
	}

	if a.records != nil && !cfg.DryRun {
		observers = append(observers, a.records)
	}
	observers = append(observers, extra...)

	a.runner = pipeline.NewRunner(a.adapters, a.index, recordSink, observers, pipeline.Config{
		TrackedTeam:  cfg.TrackedTeam,
		GamesToCheck: cfg.GamesToCheck,
		Concurrency:  cfg.UploadConcurrency,
		GameTimeout:  cfg.GameTimeout,
	}, logger)

	return a, nil
}

// reportSaver returns the cycle repository, or nil when no database is set.
func (a *app) reportSaver() *repository.CycleRepository {
	return a.cycles
}

// Close releases resources in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func connectWithRetry[T any](ctx context.Context, logger *logging.Logger, name string, connect func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for i := 0; i < connectRetries; i++ {
		out, err = connect()
		if err == nil {
			logger.Info("connected", "service", name)
			return out, nil
		}
		if i < connectRetries-1 {
			logger.Warn("connection attempt failed", "service", name, "attempt", i+1, "error", err)
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(connectRetryDelay):
			}
		}
	}
	return out, errors.Wrapf(err, "connect to %s", name)
}
