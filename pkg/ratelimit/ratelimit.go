// Package ratelimit implements per-identifier request limiting behind a
// small contract: Check returns whether the request is allowed, how many
// requests remain in the current window and when the window resets.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidPolicy is returned for a non-positive limit or window.
var ErrInvalidPolicy = errors.New("ratelimit: limit and window must be positive")

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether identifier may make another request.
type Limiter interface {
	Check(ctx context.Context, identifier string, limit int, window time.Duration) (Result, error)
}

// Sweeper drops state that can no longer affect a decision.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Clock is the time source used by limiters.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Algorithm names accepted by New.
const (
	AlgorithmFixedWindow = "fixed"
	AlgorithmTokenBucket = "bucket"
)

// New returns the limiter for algorithm, defaulting to a fixed window over
// an in-memory store.
func New(algorithm string, clock Clock) (interface {
	Limiter
	Sweeper
}, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	switch algorithm {
	case "", AlgorithmFixedWindow:
		return NewFixedWindow(NewMemoryStore(), clock), nil
	case AlgorithmTokenBucket:
		return NewTokenBucket(clock), nil
	default:
		return nil, errors.New("ratelimit: unknown algorithm " + algorithm)
	}
}

func validate(limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}
