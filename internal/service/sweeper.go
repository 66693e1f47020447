package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const sweepBatch = 100

// StaleCloser force-closes shifts left open too long.
type StaleCloser interface {
	CloseStale(ctx context.Context, maxAge time.Duration, limit int32) (int, error)
}

// Sweeper periodically force-closes stale shifts.
type Sweeper struct {
	shifts   StaleCloser
	interval time.Duration
	maxAge   time.Duration
	log      *zap.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(shifts StaleCloser, interval, maxAge time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{shifts: shifts, interval: interval, maxAge: maxAge, log: log}
}

// Run sweeps once per interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep closes stale shifts in batches until none are left.
func (s *Sweeper) Sweep(ctx context.Context) {
	for {
		n, err := s.shifts.CloseStale(ctx, s.maxAge, sweepBatch)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error("stale shift sweep failed", zap.Error(err))
			}
			return
		}
		if n > 0 {
			s.log.Info("force closed stale shifts", zap.Int("count", n))
		}
		if n < sweepBatch {
			return
		}
	}
}
