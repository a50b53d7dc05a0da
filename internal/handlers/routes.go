package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/ratelimit"
)

// AuthMetadataKey marks operations that require the management token.
const AuthMetadataKey = "requiresToken"

// DefaultMaxUploadBytes bounds multipart uploads.
const DefaultMaxUploadBytes = 64 << 20

func managementMetadata(scope ratelimit.Scope) map[string]any {
	return map[string]any{
		AuthMetadataKey:       true,
		ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: scope},
	}
}

// RegisterRoutes registers the public resolution and management routes.
func RegisterRoutes(api huma.API, entries *EntryHandler, resolve *ResolveHandler, maxUploadBytes int64) {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	huma.Register(api, huma.Operation{
		OperationID:   "upload-file",
		Method:        http.MethodPost,
		Path:          "/api/files",
		Summary:       "Upload file",
		Description:   "Stores a file under a new name. Multipart fields: name, file, optional ext.",
		Tags:          []string{"Entries"},
		DefaultStatus: http.StatusNoContent,
		MaxBodyBytes:  maxUploadBytes,
		Metadata:      managementMetadata(ratelimit.ScopeMutate),
	}, entries.CreateFile)

	huma.Register(api, huma.Operation{
		OperationID:   "shorten-url",
		Method:        http.MethodPost,
		Path:          "/api/urls",
		Summary:       "Shorten URL",
		Description:   "Registers a name that redirects to a URL.",
		Tags:          []string{"Entries"},
		DefaultStatus: http.StatusNoContent,
		Metadata:      managementMetadata(ratelimit.ScopeMutate),
	}, entries.CreateURL)

	huma.Register(api, huma.Operation{
		OperationID: "get-entry",
		Method:      http.MethodGet,
		Path:        "/api/entries/{name}",
		Summary:     "Get entry",
		Tags:        []string{"Entries"},
		Metadata:    managementMetadata(ratelimit.ScopeInspect),
	}, entries.GetEntry)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-entry",
		Method:        http.MethodDelete,
		Path:          "/api/entries/{name}",
		Summary:       "Delete entry",
		Tags:          []string{"Entries"},
		DefaultStatus: http.StatusNoContent,
		Metadata:      managementMetadata(ratelimit.ScopeMutate),
	}, entries.DeleteEntry)

	huma.Register(api, huma.Operation{
		OperationID: "home",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Redirect to the home page",
		Tags:        []string{"Public"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, resolve.Root)

	huma.Register(api, huma.Operation{
		OperationID: "resolve",
		Method:      http.MethodGet,
		Path:        "/{name}",
		Summary:     "Resolve name",
		Description: "Redirects URL entries and serves File entries. Link-preview crawlers get an Open Graph card.",
		Tags:        []string{"Public"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeResolve},
		},
	}, resolve.Resolve)
}
