package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Entry is the counter state for one identifier.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store holds fixed-window counters. Update must apply fn atomically with
// respect to other updates of the same key; ok is false when no entry exists.
type Store interface {
	Update(ctx context.Context, key string, fn func(e Entry, ok bool) Entry) (Entry, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore is a process-local Store for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(Entry, bool) Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	e = fn(e, ok)
	s.entries[key] = e
	return e, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.entries {
		if !now.Before(e.ResetAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of tracked identifiers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
