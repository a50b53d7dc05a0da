package cdn

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/entry"
	"go.uber.org/zap"
)

// Outcome is the terminal result of resolving a name.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeRedirect
	OutcomePreview
	OutcomeServed
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRedirect:
		return "redirect"
	case OutcomePreview:
		return "preview"
	case OutcomeServed:
		return "served"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// crawlerPatterns identify link-preview crawlers by user agent.
var crawlerPatterns = []string{
	"+https://discord.com",
	"+https://discordapp.com",
}

// IsCrawler reports whether userAgent belongs to a link-preview crawler.
// An empty user agent never does.
func IsCrawler(userAgent string) bool {
	if userAgent == "" {
		return false
	}

	for _, p := range crawlerPatterns {
		if strings.Contains(userAgent, p) {
			return true
		}
	}

	return false
}

// Request describes one public resolution.
type Request struct {
	Name      string
	UserAgent string
	ClientIP  string
	Referrer  string
	// Raw forces the blob bytes even for crawlers (image=1).
	Raw bool
	// Preview forces the preview stub (discord=1).
	Preview bool
}

// Resolution is what the HTTP layer renders.
type Resolution struct {
	Outcome     Outcome
	Location    string
	ContentType string
	Body        []byte
}

// Resolver maps names to resolutions.
type Resolver struct {
	entries Entries
	baseURL string
	events  *analytics.Publishers
	logger  *zap.Logger
	now     func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolvedPublisher emits an analytics event per resolution.
func WithResolvedPublisher(p *analytics.Publishers) ResolverOption {
	return func(r *Resolver) { r.events = p }
}

// NewResolver creates a Resolver. baseURL prefixes the og:image link in
// preview stubs.
func NewResolver(entries Entries, baseURL string, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		entries: entries,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		events:  analytics.NoopPublishers(),
		logger:  logger,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve never returns an error; failures become OutcomeFailure.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	res := r.resolve(ctx, req)

	if err := r.events.Resolved(ctx, &analytics.EntryResolvedEvent{
		ID:         analytics.NewEventID(),
		Name:       req.Name,
		Outcome:    res.Outcome.String(),
		ClientIP:   req.ClientIP,
		UserAgent:  req.UserAgent,
		Referrer:   req.Referrer,
		ResolvedAt: r.now(),
	}); err != nil {
		r.logger.Warn("failed to publish analytics event",
			zap.String("event", "entry resolved"),
			zap.Error(err),
		)
	}

	return res
}

func (r *Resolver) resolve(ctx context.Context, req Request) Resolution {
	log := r.logger.With(zap.String("name", req.Name))

	e, err := r.entries.Get(ctx, req.Name)
	if errors.Is(err, entry.ErrNotFound) {
		return Resolution{Outcome: OutcomeNotFound}
	}

	if err != nil {
		log.Error("failed to look up entry", zap.Error(err))

		return Resolution{Outcome: OutcomeFailure}
	}

	switch e.Kind {
	case entry.KindURL:
		return Resolution{Outcome: OutcomeRedirect, Location: e.URL}
	case entry.KindFile:
		if req.Preview || (!req.Raw && IsCrawler(req.UserAgent)) {
			return Resolution{
				Outcome:     OutcomePreview,
				ContentType: "text/html",
				Body:        []byte(r.PreviewHTML(e.Name)),
			}
		}

		data, err := r.entries.ReadBlob(ctx, e.Name)
		if err != nil {
			log.Warn("failed to read blob, serving empty body", zap.Error(err))

			data = []byte{}
		}

		return Resolution{
			Outcome:     OutcomeServed,
			ContentType: entry.InferContentType(e.Ext),
			Body:        data,
		}
	default:
		log.Error("entry has unknown kind", zap.Stringer("kind", e.Kind))

		return Resolution{Outcome: OutcomeFailure}
	}
}

// PreviewHTML renders the Open Graph image card for name.
func (r *Resolver) PreviewHTML(name string) string {
	image := html.EscapeString(r.baseURL + "/" + url.PathEscape(name) + "?image=1")

	return `<!DOCTYPE HTML><html><head>` +
		`<meta property="og:image" content="` + image + `"/>` +
		`<meta property="twitter:card" content="summary_large_image"/>` +
		`<meta property="og:type" content="object"/>` +
		`</head><body></body></html>`
}
