package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory sliding-window implementation of
// ratelimit.Store. Counters are per process.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// RateLimitMemoryOption configures a RateLimitMemoryStore.
type RateLimitMemoryOption func(*RateLimitMemoryStore)

// WithClock replaces time.Now as the store's clock.
func WithClock(now func() time.Time) RateLimitMemoryOption {
	return func(s *RateLimitMemoryStore) {
		s.now = now
	}
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore(opts ...RateLimitMemoryOption) *RateLimitMemoryStore {
	s := &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.requests[key][:0]

	for _, ts := range s.requests[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	kept = append(kept, now)
	s.requests[key] = kept

	return int64(len(kept)), nil
}
