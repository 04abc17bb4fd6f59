package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"EarningsChart/internal/analysis"
	"EarningsChart/internal/cache"
	"EarningsChart/internal/collector"
	"EarningsChart/internal/config"
	"EarningsChart/internal/metrics"
	"EarningsChart/internal/recorder"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Registry
	collector *collector.Collector
	recorder  recorder.Recorder
	service   *analysis.Service
	closers   []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	a.collector = collector.NewCollector(fetcher, collector.Options{
		Period:        cfg.DataSource.Period,
		Timeout:       cfg.DataSource.Timeout,
		CacheTTL:      cfg.Cache.TTL,
		RatePerSecond: cfg.DataSource.RatePerSecond,
		Burst:         cfg.DataSource.Burst,
		Cache:         a.newCache(ctx),
		Metrics:       a.metrics,
	})
	log.Info().Str("provider", a.collector.Name()).Str("period", a.collector.Period()).Msg("data source")

	a.recorder = a.newRecorder(ctx)
	a.service = analysis.NewService(a.collector, a.recorder, a.metrics)
	return a, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy)
		if cfg.DataSource.BaseURL != "" {
			f.BaseURL = cfg.DataSource.BaseURL
		}
		return f, nil
	case "polygon":
		return collector.NewPolygonFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy), nil
	case "csv":
		return collector.NewCSVFetcher(cfg.DataSource.CSVDir), nil
	case "mock":
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.DataSource.Provider)
	}
}

// newCache prefers Redis when configured and falls back to memory.
func (a *app) newCache(ctx context.Context) cache.Cache {
	if a.cfg.Cache.RedisAddr == "" {
		return cache.NewMemory()
	}
	rc, err := cache.NewRedis(ctx, a.cfg.Cache.RedisAddr, a.cfg.Cache.RedisPassword, a.cfg.Cache.RedisDB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		return cache.NewMemory()
	}
	a.closers = append(a.closers, rc.Close)
	log.Info().Str("addr", a.cfg.Cache.RedisAddr).Msg("redis cache connected")
	return rc
}

// newRecorder opens the lookup history store; failures degrade to noop.
func (a *app) newRecorder(ctx context.Context) recorder.Recorder {
	if a.cfg.Database.Driver == "none" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLRecorder(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Warn().Err(err).Str("driver", a.cfg.Database.Driver).Msg("init recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	a.closers = append(a.closers, sr.Close)
	return sr
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}
