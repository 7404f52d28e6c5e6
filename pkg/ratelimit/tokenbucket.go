package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a smoother alternative to FixedWindow with the same
// contract. Each identifier gets a bucket of limit tokens refilled at
// limit/window. ResetAt is when the bucket would be full again.
type TokenBucket struct {
	clock Clock

	mu      sync.Mutex
	buckets map[bucketKey]*rate.Limiter
}

type bucketKey struct {
	id     string
	limit  int
	window time.Duration
}

func NewTokenBucket(clock Clock) *TokenBucket {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenBucket{clock: clock, buckets: make(map[bucketKey]*rate.Limiter)}
}

func (b *TokenBucket) Check(_ context.Context, identifier string, limit int, window time.Duration) (Result, error) {
	if err := validate(limit, window); err != nil {
		return Result{}, err
	}

	now := b.clock.Now()
	lim := b.limiter(bucketKey{id: identifier, limit: limit, window: window}, now)

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	missing := float64(limit) - tokens
	refill := time.Duration(missing / float64(lim.Limit()) * float64(time.Second))

	return Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(int(tokens), 0),
		ResetAt:   now.Add(refill),
	}, nil
}

func (b *TokenBucket) limiter(k bucketKey, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	lim, ok := b.buckets[k]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(k.limit)/k.window.Seconds()), k.limit)
		b.buckets[k] = lim
	}
	return lim
}

// Sweep drops buckets that have refilled completely, which makes them
// indistinguishable from new ones.
func (b *TokenBucket) Sweep(_ context.Context) (int, error) {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for k, lim := range b.buckets {
		if lim.TokensAt(now) >= float64(k.limit) {
			delete(b.buckets, k)
			n++
		}
	}
	return n, nil
}
