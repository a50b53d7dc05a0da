package container

import (
	"net/http"
	"time"

	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/entry"
	"go.uber.org/zap"
)

const fetchTimeout = 2 * time.Minute

// ServicePackage provides the management *cdn.Service and the *cdn.Resolver.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*cdn.Service, error) {
		opts := do.MustInvoke[*Options](i)
		fetcher := cdn.NewHTTPFetcher(&http.Client{Timeout: fetchTimeout}, opts.maxUploadBytes())

		return cdn.NewService(
			do.MustInvoke[*entry.Store](i),
			do.MustInvoke[*zap.Logger](i),
			cdn.WithFetcher(fetcher),
			cdn.WithPublishers(do.MustInvoke[*analytics.Publishers](i)),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*cdn.Resolver, error) {
		opts := do.MustInvoke[*Options](i)

		return cdn.NewResolver(
			do.MustInvoke[*entry.Store](i),
			opts.PublicBaseURL(),
			do.MustInvoke[*zap.Logger](i),
			cdn.WithResolvedPublisher(do.MustInvoke[*analytics.Publishers](i)),
		), nil
	})
}
