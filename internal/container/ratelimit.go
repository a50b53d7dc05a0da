package container

import (
	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/ratelimit"
	"github.com/serroba/namecdn/internal/store"
)

// RateLimitPackage provides the counter store and the HTTP policy limiter.
// Counters live in Redis when it is configured so replicas share them.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return store.NewRateLimitMemoryStore(), nil
		}

		client := do.MustInvoke[*RedisClient](i)

		return store.NewRateLimitRedisStore(client.Client), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), ratelimit.DefaultPolicy()), nil
	})
}
