package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/handlers"
	"go.uber.org/zap"
)

// TokenAuth rejects requests to operations tagged with
// handlers.AuthMetadataKey unless the Authorization header is exactly token.
func TokenAuth(api huma.API, token string, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresToken(ctx.Operation()) {
			next(ctx)

			return
		}

		if !tokenMatches(ctx.Header("Authorization"), token) {
			logger.Warn("rejected management request",
				zap.String("path", getOperationPath(ctx)),
				zap.String("client_ip", clientIP(ctx)),
			)

			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "Not authorized")

			return
		}

		next(ctx)
	}
}

func requiresToken(op *huma.Operation) bool {
	if op == nil || op.Metadata == nil {
		return false
	}

	required, _ := op.Metadata[handlers.AuthMetadataKey].(bool)

	return required
}

func tokenMatches(header, token string) bool {
	if token == "" || header == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(header), []byte(token)) == 1
}
