package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the budget a request ran out of. Route is set
// for per-route limits, Scope for policy limits.
type LimitExceeded struct {
	Scope  Scope
	Route  string
	Config LimitConfig
	Count  int64
}

// PolicyLimiter charges requests against a Policy, or against per-route
// limits for operations that declare their own.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a PolicyLimiter counting in store.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{store: store, policy: policy}
}

// Allow records the request in every window of every scope and stops at
// the first one over budget. Scopes absent from the policy are free.
func (l *PolicyLimiter) Allow(ctx context.Context, client string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", client, scope, limit.Window.Milliseconds())

			count, err := l.store.Record(ctx, key, limit.Window)
			if err != nil {
				return false, nil, err
			}

			if count > limit.Max {
				return false, &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
			}
		}
	}

	return true, nil, nil
}

// AllowRoute charges the request against limits keyed by the route
// template, so every name behind /{name} shares one budget per client.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context,
	client, route string,
	limits []LimitConfig,
) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:route:%s:%d", client, route, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return false, nil, err
		}

		if count > limit.Max {
			return false, &LimitExceeded{Route: route, Config: limit, Count: count}, nil
		}
	}

	return true, nil, nil
}
