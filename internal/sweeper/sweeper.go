// Package sweeper removes expired one-time tokens. Expired tokens are never
// accepted by reads; the sweeper only keeps the table small.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/metrics"
	"github.com/robfig/cron/v3"
)

type TokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

type Sweeper struct {
	tokens    TokenPurger
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func New(tokens TokenPurger, batchSize int, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		tokens:    tokens,
		batchSize: batchSize,
		logger:    logger.With("component", "sweeper"),
		now:       time.Now,
	}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep deletes expired tokens in batches until a batch comes back short.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { metrics.SweeperCycleDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := s.now()
	total := 0
	for {
		n, err := s.tokens.DeleteExpired(ctx, cutoff, s.batchSize)
		total += n
		metrics.SweeperDeletedTotal.Add(float64(n))
		if err != nil {
			return total, fmt.Errorf("delete expired tokens: %w", err)
		}
		if n < s.batchSize {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

// Run sweeps on the cron schedule (standard five-field syntax or
// descriptors like "@every 10m") until ctx is cancelled. Cycles never overlap.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { s.cycle(ctx) }); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}

	s.logger.Info("sweeper started", "schedule", schedule, "batch_size", s.batchSize)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweeper shut down")
	return nil
}

func (s *Sweeper) cycle(ctx context.Context) {
	deleted, err := s.Sweep(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "sweep failed", "deleted", deleted, "error", err)
		return
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "swept expired tokens", "deleted", deleted)
	}
}
