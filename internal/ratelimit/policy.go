package ratelimit

import "time"

// LimitConfig allows at most Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy keeps public fetches generous, since embeds and crawlers
// burst, and holds mutations to a trickle.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 2000, time.Minute).
		AddLimit(ScopeResolve, 1000, time.Minute).
		AddLimit(ScopeInspect, 120, time.Minute).
		AddLimit(ScopeMutate, 30, time.Minute).
		AddLimit(ScopeMutate, 500, time.Hour).
		Build()
}

// PolicyBuilder assembles a Policy one limit at a time.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder starts an empty policy.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{Limits: map[Scope][]LimitConfig{}}}
}

// AddLimit appends a limit of maxRequests per window to scope.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}
