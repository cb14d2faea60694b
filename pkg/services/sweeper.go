package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/botfluent/botfluent/pkg/persistence"
)

const sweepSchedule = "@every 1m"

// Sweeper periodically expires suspended sessions that have been idle for
// longer than the configured window. Suspensions themselves never time
// out; expiry is this external policy.
type Sweeper struct {
	store   persistence.SessionStore
	idleFor time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store persistence.SessionStore, idleFor time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		store:   store,
		idleFor: idleFor,
		cron:    cron.New(),
		logger:  logger.With("module", "services.sweeper"),
	}
}

// Start schedules the sweep and begins running it.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(sweepSchedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "session sweeper started", "idle_for", s.idleFor)

	return nil
}

// Sweep expires idle sessions once.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.store.ExpireIdle(ctx, s.idleFor)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to expire idle sessions", "error", err)

		return
	}

	if expired > 0 {
		s.logger.InfoContext(ctx, "expired idle sessions", "count", expired)
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
