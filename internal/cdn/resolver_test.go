package cdn_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/entry"
	"github.com/serroba/namecdn/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const discordUA = "Mozilla/5.0 (compatible; Discordbot/2.0; +https://discordapp.com)"

type brokenRecords struct {
	*store.MemoryStore
}

func (brokenRecords) Get(context.Context, string) (*entry.Entry, error) {
	return nil, errMock
}

type unreadableBlobs struct {
	*store.MemoryStore
}

func (unreadableBlobs) ReadBlob(context.Context, string) ([]byte, error) {
	return nil, errMock
}

func newResolver(t *testing.T) (*cdn.Resolver, *cdn.Service) {
	t.Helper()

	mem := store.NewMemoryStore()
	entries := entry.NewStore(mem, mem)

	return cdn.NewResolver(entries, "https://cdn.example.com/", zap.NewNop()),
		cdn.NewService(entries, zap.NewNop())
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown name is not found", func(t *testing.T) {
		r, _ := newResolver(t)

		res := r.Resolve(ctx, cdn.Request{Name: "missing"})

		assert.Equal(t, cdn.OutcomeNotFound, res.Outcome)
	})

	t.Run("url entry redirects", func(t *testing.T) {
		r, svc := newResolver(t)
		_, err := svc.CreateURL(ctx, "home", "https://example.com")
		require.NoError(t, err)

		res := r.Resolve(ctx, cdn.Request{Name: "home", UserAgent: discordUA})

		assert.Equal(t, cdn.OutcomeRedirect, res.Outcome)
		assert.Equal(t, "https://example.com", res.Location)
	})

	t.Run("file entry serves bytes with inferred type", func(t *testing.T) {
		r, svc := newResolver(t)
		_, err := svc.CreateFile(ctx, "pic", []byte{1, 2, 3}, "png")
		require.NoError(t, err)

		res := r.Resolve(ctx, cdn.Request{Name: "pic", UserAgent: "curl/8.0"})

		assert.Equal(t, cdn.OutcomeServed, res.Outcome)
		assert.Equal(t, []byte{1, 2, 3}, res.Body)
		assert.Equal(t, "image/png", res.ContentType)
	})

	t.Run("crawler gets the preview stub", func(t *testing.T) {
		r, svc := newResolver(t)
		_, err := svc.CreateFile(ctx, "pic", []byte{1, 2, 3}, "png")
		require.NoError(t, err)

		res := r.Resolve(ctx, cdn.Request{Name: "pic", UserAgent: discordUA})

		assert.Equal(t, cdn.OutcomePreview, res.Outcome)
		assert.Equal(t, "text/html", res.ContentType)
		assert.Contains(t, string(res.Body), `content="https://cdn.example.com/pic?image=1"`)
		assert.Contains(t, string(res.Body), `summary_large_image`)
	})

	t.Run("image override gives crawlers raw bytes", func(t *testing.T) {
		r, svc := newResolver(t)
		_, err := svc.CreateFile(ctx, "pic", []byte{1, 2, 3}, "png")
		require.NoError(t, err)

		res := r.Resolve(ctx, cdn.Request{Name: "pic", UserAgent: discordUA, Raw: true})

		assert.Equal(t, cdn.OutcomeServed, res.Outcome)
		assert.Equal(t, []byte{1, 2, 3}, res.Body)
	})

	t.Run("preview flag forces the stub", func(t *testing.T) {
		r, svc := newResolver(t)
		_, err := svc.CreateFile(ctx, "pic", []byte{1, 2, 3}, "")
		require.NoError(t, err)

		res := r.Resolve(ctx, cdn.Request{Name: "pic", Preview: true})

		assert.Equal(t, cdn.OutcomePreview, res.Outcome)
	})

	t.Run("removed entry is not found", func(t *testing.T) {
		r, svc := newResolver(t)
		_, err := svc.CreateURL(ctx, "home", "https://example.com")
		require.NoError(t, err)
		require.NoError(t, svc.Remove(ctx, "home"))

		res := r.Resolve(ctx, cdn.Request{Name: "home"})

		assert.Equal(t, cdn.OutcomeNotFound, res.Outcome)
	})

	t.Run("lookup failure is a failure", func(t *testing.T) {
		mem := store.NewMemoryStore()
		r := cdn.NewResolver(entry.NewStore(brokenRecords{mem}, mem), "", zap.NewNop())

		res := r.Resolve(ctx, cdn.Request{Name: "pic"})

		assert.Equal(t, cdn.OutcomeFailure, res.Outcome)
	})

	t.Run("unreadable blob serves empty body", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Insert(ctx, entry.NewFileEntry("pic", "", time.Now())))
		r := cdn.NewResolver(entry.NewStore(mem, unreadableBlobs{mem}), "", zap.NewNop())

		res := r.Resolve(ctx, cdn.Request{Name: "pic"})

		assert.Equal(t, cdn.OutcomeServed, res.Outcome)
		assert.Empty(t, res.Body)
		assert.Equal(t, "application/octet-stream", res.ContentType)
	})

	t.Run("publishes a resolved event", func(t *testing.T) {
		pub := &capturePublisher{}
		mem := store.NewMemoryStore()
		r := cdn.NewResolver(entry.NewStore(mem, mem), "", zap.NewNop(),
			cdn.WithResolvedPublisher(analytics.NewPublishers(pub)))

		r.Resolve(ctx, cdn.Request{Name: "missing"})

		assert.Equal(t, []string{analytics.TopicEntryResolved}, pub.topics)
	})
}

func TestIsCrawler(t *testing.T) {
	assert.True(t, cdn.IsCrawler(discordUA))
	assert.True(t, cdn.IsCrawler("Discordbot (+https://discord.com)"))
	assert.False(t, cdn.IsCrawler("Mozilla/5.0"))
	assert.False(t, cdn.IsCrawler(""))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "served", cdn.OutcomeServed.String())
	assert.Equal(t, "not_found", cdn.OutcomeNotFound.String())
	assert.Equal(t, "unknown(42)", cdn.Outcome(42).String())
}
