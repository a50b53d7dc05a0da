package container

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/bot"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/handlers"
	"github.com/serroba/namecdn/internal/health"
	"github.com/serroba/namecdn/internal/middleware"
	"github.com/serroba/namecdn/internal/ratelimit"
	"go.uber.org/zap"
)

// InteractionsPath receives Discord interaction webhooks.
const InteractionsPath = "/api/interactions"

const requestIDLength = 16

// HTTPPackage provides the router, the huma API and the compressed
// http.Handler served by the server.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		requestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, err
		}

		handlers.UseJSONErrors()

		api := humachi.New(router, huma.DefaultConfig("Name CDN", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(requestID))
		api.UseMiddleware(middleware.AccessLog(logger))
		api.UseMiddleware(middleware.TokenAuth(api, opts.ManagementToken(), logger))
		api.UseMiddleware(middleware.PolicyRateLimiter(
			api,
			do.MustInvoke[*ratelimit.PolicyLimiter](i),
			ratelimit.NewRouteScopeResolver(),
			logger,
		))

		service := do.MustInvoke[*cdn.Service](i)
		resolver := do.MustInvoke[*cdn.Resolver](i)

		health.RegisterRoutes(api, health.NewHandler(healthChecks(i, opts)))
		handlers.RegisterRoutes(
			api,
			handlers.NewEntryHandler(service, logger),
			handlers.NewResolveHandler(resolver, opts.HomeURL),
			opts.maxUploadBytes(),
		)

		return api, nil
	})

	do.Provide(injector, func(i *do.Injector) (http.Handler, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		opts := do.MustInvoke[*Options](i)

		if opts.DiscordPublicKey != "" {
			router.Method(http.MethodPost, InteractionsPath, do.MustInvoke[*bot.Handler](i))
			logger.Info("discord interactions enabled", zap.String("path", InteractionsPath))
		}

		_ = do.MustInvoke[huma.API](i)

		return gzhttp.GzipHandler(router), nil
	})
}

func healthChecks(i *do.Injector, opts *Options) map[string]health.Checker {
	checks := map[string]health.Checker{
		"storage": do.MustInvoke[StorageBackend](i),
	}

	if opts.RedisAddr != "" {
		checks["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
	}

	return checks
}
