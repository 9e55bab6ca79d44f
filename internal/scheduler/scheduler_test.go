package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock records requested waits and stops the loop after a budget of
// wait calls, so tests never sleep for real.
type fakeClock struct {
	waits  []time.Duration
	budget int
	cancel context.CancelFunc
}

func (f *fakeClock) wait(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.waits = append(f.waits, d)
	f.budget--
	if f.budget <= 0 {
		f.cancel()
		return ctx.Err()
	}
	return nil
}

func runScheduler(t *testing.T, opts Options, budget int, tick TickFunc) []time.Duration {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{budget: budget, cancel: cancel}
	opts.Wait = clock.wait

	sched := New(opts, zerolog.Nop())
	err := sched.Run(ctx, tick)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("scheduler should stop with context.Canceled, got %v", err)
	}
	return clock.waits
}

func TestRunWaitsIntervalBetweenCycles(t *testing.T) {
	ticks := 0
	waits := runScheduler(t, Options{Interval: 30 * time.Second, Cooldown: 10 * time.Second}, 3,
		func(ctx context.Context) error {
			ticks++
			return nil
		})

	if ticks != 2 {
		t.Fatalf("expected 2 completed cycles, got %d", ticks)
	}
	for i, d := range waits {
		if d != 30*time.Second {
			t.Fatalf("wait %d should be the interval, got %s", i, d)
		}
	}
}

func TestRunAppliesCooldownAfterFailedCycle(t *testing.T) {
	calls := 0
	waits := runScheduler(t, Options{Interval: time.Second, Cooldown: 10 * time.Second}, 4,
		func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return errors.New("systemic failure")
			}
			return nil
		})

	// interval, cooldown, interval, ...
	if len(waits) < 3 {
		t.Fatalf("expected at least 3 waits, got %v", waits)
	}
	if waits[0] != time.Second || waits[1] != 10*time.Second || waits[2] != time.Second {
		t.Fatalf("failed cycle should add the cooldown on top of the interval: %v", waits)
	}

	total := waits[0] + waits[1]
	if total <= time.Second {
		t.Fatalf("post-failure pause must exceed the interval, got %s", total)
	}
}

func TestRunStartupDelay(t *testing.T) {
	waits := runScheduler(t, Options{Interval: time.Minute, Cooldown: time.Second, StartupDelay: 5 * time.Second}, 2,
		func(ctx context.Context) error { return nil })

	if waits[0] != 5*time.Second {
		t.Fatalf("first wait should be the startup delay, got %s", waits[0])
	}
	if waits[1] != time.Minute {
		t.Fatalf("second wait should be the interval, got %s", waits[1])
	}
}

func TestRunStopsOnCancelledTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{budget: 100, cancel: func() {}}

	sched := New(Options{Interval: time.Second, Cooldown: time.Second, Wait: clock.wait}, zerolog.Nop())
	err := sched.Run(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation inside a tick should stop the loop, got %v", err)
	}
}

func TestNewPanicsOnInvalidInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("non-positive interval should panic")
		}
	}()
	New(Options{Interval: 0}, zerolog.Nop())
}
