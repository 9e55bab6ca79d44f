package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc runs one collection cycle. A returned error marks the whole
// cycle as failed and triggers the cooldown.
type TickFunc func(ctx context.Context) error

// WaitFunc suspends until the duration elapses or ctx is cancelled.
// Injectable so tests drive the loop with a fake clock.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	Cooldown     time.Duration
	StartupDelay time.Duration
	Wait         WaitFunc
}

// Scheduler drives fixed-interval execution of collection cycles. Cycles
// never overlap: the next wait starts only after the tick returns.
type Scheduler struct {
	opts   Options
	wait   WaitFunc
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	wait := opts.Wait
	if wait == nil {
		wait = waitTimer
	}
	return &Scheduler{opts: opts, wait: wait, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the tick function once per interval until ctx is
// cancelled. When a tick returns an error the next cycle is additionally
// delayed by the cooldown, so the pause after a failed cycle is always
// strictly longer than the regular interval.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := s.wait(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	for {
		if err := s.wait(ctx, s.opts.Interval); err != nil {
			return err
		}

		s.logger.Debug().Msg("executing collection cycle")
		if err := tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.logger.Error().Err(err).Dur("cooldown", s.opts.Cooldown).Msg("cycle failed; backing off before next cycle")
			if s.opts.Cooldown > 0 {
				if werr := s.wait(ctx, s.opts.Cooldown); werr != nil {
					return werr
				}
			}
		}
	}
}

func waitTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
