package cdn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/entry"
	"go.uber.org/zap"
)

// Entries is the entry store the command surface operates on.
type Entries interface {
	Get(ctx context.Context, name string) (*entry.Entry, error)
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, e *entry.Entry) error
	Delete(ctx context.Context, name string) (bool, error)
	ReadBlob(ctx context.Context, name string) ([]byte, error)
	WriteBlob(ctx context.Context, name string, data []byte) error
}

type sourceKey struct{}

// WithSource tags ctx with the surface issuing the command.
func WithSource(ctx context.Context, source analytics.Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) analytics.Source {
	if s, ok := ctx.Value(sourceKey{}).(analytics.Source); ok {
		return s
	}

	return analytics.SourceAPI
}

// Service implements the management commands shared by the API and the bot.
// Authorization is the caller's job.
type Service struct {
	entries Entries
	fetcher Fetcher
	locks   *nameLocks
	events  *analytics.Publishers
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher sets the downloader used by UploadFromURL.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithPublishers sets the analytics publishers.
func WithPublishers(p *analytics.Publishers) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. Without options it fetches over HTTP and
// publishes nothing.
func NewService(entries Entries, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		entries: entries,
		fetcher: NewHTTPFetcher(nil, 0),
		locks:   newNameLocks(),
		events:  analytics.NoopPublishers(),
		logger:  logger,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}

	return nil
}

func (s *Service) ensureAbsent(ctx context.Context, name string) error {
	exists, err := s.entries.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check entry %q: %w", name, err)
	}

	if exists {
		return entry.ErrDuplicateName
	}

	return nil
}

// CreateFile stores data under name. The blob is written before the record
// and is not rolled back if the record insert fails. Creates for the same
// name are serialized so a rejected duplicate never touches the blob.
func (s *Service) CreateFile(ctx context.Context, name string, data []byte, ext string) (*entry.Entry, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(name)
	defer unlock()

	if err := s.ensureAbsent(ctx, name); err != nil {
		return nil, err
	}

	if err := s.entries.WriteBlob(ctx, name, data); err != nil {
		return nil, fmt.Errorf("write blob %q: %w", name, err)
	}

	e := entry.NewFileEntry(name, ext, s.now())
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}

	s.publishCreated(ctx, e, len(data))

	return e, nil
}

// CreateURL registers name as a redirect to url.
func (s *Service) CreateURL(ctx context.Context, name, url string) (*entry.Entry, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}

	if err := required("url", url); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(name)
	defer unlock()

	if err := s.ensureAbsent(ctx, name); err != nil {
		return nil, err
	}

	e := entry.NewURLEntry(name, url, s.now())
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}

	s.publishCreated(ctx, e, 0)

	return e, nil
}

// Inspect returns the entry named name or entry.ErrNotFound.
func (s *Service) Inspect(ctx context.Context, name string) (*entry.Entry, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}

	return s.entries.Get(ctx, name)
}

// Remove deletes the entry and its blob. An absent entry is entry.ErrNotFound.
func (s *Service) Remove(ctx context.Context, name string) error {
	if err := required("name", name); err != nil {
		return err
	}

	unlock := s.locks.lock(name)
	defer unlock()

	deleted, err := s.entries.Delete(ctx, name)
	if err != nil {
		return err
	}

	if !deleted {
		return entry.ErrNotFound
	}

	s.logPublish("entry deleted", s.events.Deleted(ctx, &analytics.EntryDeletedEvent{
		ID:        analytics.NewEventID(),
		Name:      name,
		Source:    sourceFrom(ctx),
		DeletedAt: s.now(),
	}))

	return nil
}

// UploadFromURL downloads sourceURL and stores it as a file entry. When ext
// is empty it is inferred from the URL.
func (s *Service) UploadFromURL(ctx context.Context, name, sourceURL, ext string) (*entry.Entry, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}

	if err := required("url", sourceURL); err != nil {
		return nil, err
	}

	if ext == "" {
		ext = InferExtension(sourceURL)
	}

	data, err := s.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		if !errors.Is(err, ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}

		return nil, err
	}

	return s.CreateFile(ctx, name, data, ext)
}

// InferExtension returns the extension of the last path segment of rawURL,
// or "" when there is none. Query and fragment are ignored.
func InferExtension(rawURL string) string {
	if !strings.Contains(rawURL, "/") || !strings.Contains(rawURL, ".") {
		return ""
	}

	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}

	last := rawURL[strings.LastIndex(rawURL, "/")+1:]

	dot := strings.LastIndex(last, ".")
	if dot < 0 {
		return ""
	}

	return strings.TrimSpace(last[dot+1:])
}

func (s *Service) publishCreated(ctx context.Context, e *entry.Entry, size int) {
	s.logPublish("entry created", s.events.Created(ctx, &analytics.EntryCreatedEvent{
		ID:        analytics.NewEventID(),
		Name:      e.Name,
		Kind:      e.Kind.String(),
		URL:       e.URL,
		Ext:       e.Ext,
		Size:      size,
		Source:    sourceFrom(ctx),
		CreatedAt: e.Created,
	}))
}

func (s *Service) logPublish(what string, err error) {
	if err != nil {
		s.logger.Warn("failed to publish analytics event",
			zap.String("event", what),
			zap.Error(err),
		)
	}
}
