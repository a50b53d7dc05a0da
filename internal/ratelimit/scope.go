package ratelimit

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Scope is a class of CDN traffic sharing one budget per client.
type Scope string

const (
	// ScopeGlobal counts every request.
	ScopeGlobal Scope = "global"
	// ScopeResolve counts public fetches of names.
	ScopeResolve Scope = "resolve"
	// ScopeInspect counts management reads.
	ScopeInspect Scope = "inspect"
	// ScopeMutate counts uploads, shortens and deletes.
	ScopeMutate Scope = "mutate"
)

// ManagementPrefix is where the management API lives.
const ManagementPrefix = "/api/"

// MetadataKey is the operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig tunes limiting for one operation.
type EndpointConfig struct {
	// Scope pins the operation's scope instead of deriving it from the route.
	Scope Scope
	// Limits, when set, replace the policy with per-route windows.
	Limits []LimitConfig
	// Disabled skips limiting.
	Disabled bool
}

// ScopeResolver determines which scopes a request is charged against.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// RouteScopeResolver charges management routes to inspect or mutate by
// method and everything else to resolve. A Scope pinned in the operation's
// EndpointConfig wins.
type RouteScopeResolver struct {
	prefix string
}

// NewRouteScopeResolver creates a resolver treating paths under
// ManagementPrefix as management traffic.
func NewRouteScopeResolver() *RouteScopeResolver {
	return &RouteScopeResolver{prefix: ManagementPrefix}
}

// Resolve always includes ScopeGlobal first.
func (r *RouteScopeResolver) Resolve(ctx huma.Context) []Scope {
	if cfg := ConfigFor(ctx); cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	path := ctx.URL().Path
	if op := ctx.Operation(); op != nil && op.Path != "" {
		path = op.Path
	}

	if !strings.HasPrefix(path, r.prefix) {
		return []Scope{ScopeGlobal, ScopeResolve}
	}

	switch ctx.Method() {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeInspect}
	default:
		return []Scope{ScopeGlobal, ScopeMutate}
	}
}

// ConfigFor returns the operation's EndpointConfig, or nil.
func ConfigFor(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
