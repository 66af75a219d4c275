package checkin

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrTimerOverflow is returned when the wait cannot be expressed as a
// time.Duration. It is fatal for the leg.
var ErrTimerOverflow = errors.New("checkin: wait duration not representable")

// Wait is the waiter's verdict. Ready false means the window is further out
// than the threshold and the caller has to come back later.
type Wait struct {
	Ready     bool
	Remaining time.Duration
}

// Waiter blocks a leg until its window, but only when the window is at most
// Threshold away. Long waits are handed back to the trigger cadence.
type Waiter struct {
	Threshold time.Duration
	Now       func() time.Time
	Sleep     func(ctx context.Context, d time.Duration) error
}

func (w Waiter) AwaitWindow(ctx context.Context, firesAt time.Time) (Wait, error) {
	remaining := firesAt.Sub(w.now())
	// Sub saturates instead of wrapping.
	if remaining == time.Duration(math.MaxInt64) || remaining == time.Duration(math.MinInt64) {
		return Wait{}, ErrTimerOverflow
	}
	if remaining > w.threshold() {
		return Wait{Remaining: remaining}, nil
	}
	if remaining > 0 {
		if err := w.sleep(ctx, remaining); err != nil {
			return Wait{Remaining: remaining}, err
		}
	}
	return Wait{Ready: true, Remaining: remaining}, nil
}

func (w Waiter) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w Waiter) threshold() time.Duration {
	if w.Threshold > 0 {
		return w.Threshold
	}
	return DefaultTooEarly
}

func (w Waiter) sleep(ctx context.Context, d time.Duration) error {
	if w.Sleep != nil {
		return w.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
