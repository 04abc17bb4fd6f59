package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"EarningsChart/internal/metrics"
	"EarningsChart/internal/model"
	"EarningsChart/internal/recorder"
)

// Refresher refetches a ticker and stores it in the series cache.
type Refresher interface {
	Refresh(ctx context.Context, ticker string) (model.PriceSeries, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Refresher Refresher
	Recorder  recorder.Recorder
	Metrics   *metrics.Registry
	Watchlist []string
	Retention time.Duration
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, ref Refresher, rec recorder.Recorder, m *metrics.Registry, watchlist []string, retention time.Duration) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Refresher: ref,
		Recorder:  rec,
		Metrics:   m,
		Watchlist: watchlist,
		Retention: retention,
		Ctx:       ctx,
	}
}

// RegisterAll registers the cache warm-up and history prune tasks.
func (s *Scheduler) RegisterAll(warmCron, pruneCron string) error {
	if len(s.Watchlist) > 0 {
		if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
			return fmt.Errorf("register warm task: %w", err)
		}
	}
	if s.Retention > 0 {
		if _, err := s.Cron.AddFunc(pruneCron, s.pruneTask); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunWarmNow executes the warm-up task immediately (startup / manual trigger).
func (s *Scheduler) RunWarmNow() int {
	return s.warm()
}

func (s *Scheduler) warmTask() { s.warm() }

func (s *Scheduler) warm() int {
	log.Info().Strs("watchlist", s.Watchlist).Msg("running warm task")
	ok := 0
	for _, ticker := range s.Watchlist {
		if s.Ctx.Err() != nil {
			break
		}
		if _, err := s.Refresher.Refresh(s.Ctx, ticker); err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("warm refresh failed")
			continue
		}
		s.Metrics.Warmed()
		ok++
	}
	return ok
}

func (s *Scheduler) pruneTask() {
	cutoff := time.Now().Add(-s.Retention)
	n, err := s.Recorder.PruneBefore(s.Ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("prune lookup history")
		return
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("lookup history pruned")
}
