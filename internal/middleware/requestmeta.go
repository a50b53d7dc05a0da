package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/handlers"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-ID"

// RequestMeta adds a request id, client IP, user-agent and referrer to the
// request context. An inbound X-Request-ID is kept.
func RequestMeta(newID func() string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		id := ctx.Header(RequestIDHeader)
		if id == "" {
			id = newID()
		}

		meta := handlers.RequestMeta{
			RequestID: id,
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		ctx.SetHeader(RequestIDHeader, id)
		ctx = huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta))

		next(ctx)
	}
}
