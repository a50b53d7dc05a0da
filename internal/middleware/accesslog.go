package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/handlers"
	"go.uber.org/zap"
)

// AccessLog logs one line per request once the handler has run. It must be
// registered after RequestMeta to pick up the request id.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		meta := handlers.RequestMetaFromContext(ctx.Context())
		u := ctx.URL()

		logger.Info("request",
			zap.String("request_id", meta.RequestID),
			zap.String("method", ctx.Method()),
			zap.String("path", u.Path),
			zap.String("route", getOperationPath(ctx)),
			zap.Int("status", ctx.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", meta.ClientIP),
			zap.String("user_agent", meta.UserAgent),
		)
	}
}
