package middleware

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/ratelimit"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// clientKey identifies a client for rate limiting by IP and User-Agent.
func clientKey(ctx huma.Context) string {
	sum := blake3.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:16])
}

// PolicyRateLimiter charges each request against the scopes resolver
// assigns it. Operations may override this through ratelimit.MetadataKey:
// Disabled skips limiting, Limits replaces the policy with per-route windows.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := getOperationPath(ctx)
		client := clientKey(ctx)

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		switch cfg := ratelimit.ConfigFor(ctx); {
		case cfg != nil && cfg.Disabled:
			next(ctx)

			return
		case cfg != nil && len(cfg.Limits) > 0:
			allowed, exceeded, err = limiter.AllowRoute(ctx.Context(), client, path, cfg.Limits)
		default:
			allowed, exceeded, err = limiter.Allow(ctx.Context(), client, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			rejectExceeded(api, ctx, exceeded, path, logger)

			return
		}

		next(ctx)
	}
}

func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func rejectExceeded(
	api huma.API,
	ctx huma.Context,
	exceeded *ratelimit.LimitExceeded,
	path string,
	logger *zap.Logger,
) {
	msg := "rate limit exceeded"

	if exceeded != nil {
		budget := string(exceeded.Scope) + " scope"
		if exceeded.Route != "" {
			budget = "route " + exceeded.Route
		}

		msg = fmt.Sprintf("rate limit exceeded: %s, %d/%d requests in %s",
			budget, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)

		logger.Warn("rate limit exceeded",
			zap.String("path", path),
			zap.String("method", ctx.Method()),
			zap.String("budget", budget),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("client_ip", clientIP(ctx)),
		)
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}
