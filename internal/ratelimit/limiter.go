package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key in a sliding window. Record adds one
// request and returns how many fall inside the window, itself included.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// SlidingWindowLimiter allows at most limit requests per key per window.
// The bot uses it to throttle commands per user, where there is no HTTP
// operation to hang a policy on.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}
