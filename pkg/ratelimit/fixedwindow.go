package ratelimit

import (
	"context"
	"time"
)

// FixedWindow counts requests per identifier in windows that start at the
// first request and last window. A caller can make up to 2×limit requests
// across a window boundary: limit at the end of one window and limit again
// at the start of the next.
type FixedWindow struct {
	store Store
	clock Clock
}

func NewFixedWindow(store Store, clock Clock) *FixedWindow {
	if clock == nil {
		clock = SystemClock{}
	}
	return &FixedWindow{store: store, clock: clock}
}

// Check records a request for identifier and reports whether it fits the
// limit. Denied requests still count.
func (f *FixedWindow) Check(ctx context.Context, identifier string, limit int, window time.Duration) (Result, error) {
	if err := validate(limit, window); err != nil {
		return Result{}, err
	}

	now := f.clock.Now()
	e, err := f.store.Update(ctx, identifier, func(e Entry, ok bool) Entry {
		if !ok || !now.Before(e.ResetAt) {
			return Entry{Count: 1, ResetAt: now.Add(window)}
		}
		e.Count++
		return e
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   e.Count <= limit,
		Limit:     limit,
		Remaining: max(limit-e.Count, 0),
		ResetAt:   e.ResetAt,
	}, nil
}

// Sweep removes entries whose window has ended.
func (f *FixedWindow) Sweep(ctx context.Context) (int, error) {
	return f.store.DeleteExpired(ctx, f.clock.Now())
}
