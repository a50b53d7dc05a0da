package bot_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/serroba/namecdn/internal/bot"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/entry"
	"github.com/serroba/namecdn/internal/ratelimit"
	"github.com/serroba/namecdn/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	allowedUser = "422957901716652033"
	baseURL     = "https://cdn.example.com"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.data, f.err
}

type recordingResponder struct {
	mu    sync.Mutex
	edits []string
	done  chan struct{}
}

func newRecordingResponder() *recordingResponder {
	return &recordingResponder{done: make(chan struct{}, 1)}
}

func (r *recordingResponder) InteractionResponseEdit(
	_ *discordgo.Interaction,
	edit *discordgo.WebhookEdit,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	r.mu.Lock()
	r.edits = append(r.edits, *edit.Content)
	r.mu.Unlock()

	r.done <- struct{}{}

	return &discordgo.Message{}, nil
}

func (r *recordingResponder) wait(t *testing.T) string {
	t.Helper()

	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for response edit")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.edits[len(r.edits)-1]
}

type testBot struct {
	handler   *bot.Handler
	private   ed25519.PrivateKey
	responder *recordingResponder
	service   *cdn.Service
}

func newTestBot(t *testing.T, fetcher cdn.Fetcher, opts ...bot.Option) *testBot {
	t.Helper()

	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	mem := store.NewMemoryStore()
	service := cdn.NewService(entry.NewStore(mem, mem), zap.NewNop(), cdn.WithFetcher(fetcher))
	responder := newRecordingResponder()

	handler := bot.NewHandler(bot.Config{
		PublicKey:    public,
		AllowedUsers: []string{allowedUser},
		BaseURL:      baseURL + "/",
	}, service, responder, zap.NewNop(), opts...)

	t.Cleanup(func() { _ = handler.Shutdown() })

	return &testBot{handler: handler, private: private, responder: responder, service: service}
}

func (b *testBot) send(t *testing.T, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	timestamp := "1700000000"
	sig := ed25519.Sign(b.private, append([]byte(timestamp), body...))

	req := httptest.NewRequest(http.MethodPost, "/api/interactions", bytes.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)

	return w
}

func command(user, name string, options map[string]string) map[string]any {
	opts := make([]map[string]any, 0, len(options))
	for k, v := range options {
		opts = append(opts, map[string]any{"name": k, "type": 3, "value": v})
	}

	return map[string]any{
		"id":             "interaction-1",
		"application_id": "app-1",
		"token":          "token-1",
		"type":           int(discordgo.InteractionApplicationCommand),
		"member":         map[string]any{"user": map[string]any{"id": user}},
		"data": map[string]any{
			"id":      "cmd-1",
			"name":    name,
			"type":    1,
			"options": opts,
		},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) discordgo.InteractionResponse {
	t.Helper()

	require.Equal(t, http.StatusOK, w.Code)

	var resp discordgo.InteractionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func TestHandler_Verification(t *testing.T) {
	b := newTestBot(t, fakeFetcher{})

	t.Run("rejects bad signatures", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/interactions", bytes.NewReader([]byte(`{"type":1}`)))
		req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(make([]byte, ed25519.SignatureSize)))
		req.Header.Set("X-Signature-Timestamp", "1700000000")

		w := httptest.NewRecorder()
		b.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("answers ping with pong", func(t *testing.T) {
		resp := decode(t, b.send(t, map[string]any{"id": "1", "type": int(discordgo.InteractionPing)}))

		assert.Equal(t, discordgo.InteractionResponsePong, resp.Type)
	})
}

func TestHandler_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects users outside the allow-list", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{})

		resp := decode(t, b.send(t, command("someone-else", "info", map[string]string{"name": "pic"})))

		assert.Equal(t, "You're not allowed to use this command.", resp.Data.Content)
	})

	t.Run("info on a missing entry", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{})

		resp := decode(t, b.send(t, command(allowedUser, "info", map[string]string{"name": "pic"})))

		assert.Equal(t, "Entry not found.", resp.Data.Content)
	})

	t.Run("info renders an embed", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{})
		_, err := b.service.CreateURL(ctx, "home", "https://example.com")
		require.NoError(t, err)

		resp := decode(t, b.send(t, command(allowedUser, "info", map[string]string{"name": "home"})))

		require.Len(t, resp.Data.Embeds, 1)
		embed := resp.Data.Embeds[0]
		assert.Equal(t, "CDN - home", embed.Title)
		assert.Equal(t, baseURL+"/home", embed.URL)
		assert.Equal(t, 0x43ae7d, embed.Color)
		require.Len(t, embed.Fields, 2)
		assert.Equal(t, "Type", embed.Fields[0].Name)
		assert.Equal(t, "URL", embed.Fields[0].Value)
		assert.Equal(t, "Created At", embed.Fields[1].Name)
	})

	t.Run("short then duplicate", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{})
		opts := map[string]string{"name": "home", "url": "https://example.com"}

		resp := decode(t, b.send(t, command(allowedUser, "short", opts)))
		assert.Equal(t, "[Shortened URL.](https://cdn.example.com/home)", resp.Data.Content)

		resp = decode(t, b.send(t, command(allowedUser, "short", opts)))
		assert.Equal(t, "Entry already exists.", resp.Data.Content)
	})

	t.Run("delete then delete again", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{})
		_, err := b.service.CreateURL(ctx, "home", "https://example.com")
		require.NoError(t, err)

		resp := decode(t, b.send(t, command(allowedUser, "delete", map[string]string{"name": "home"})))
		assert.Equal(t, "Deleted entry.", resp.Data.Content)

		resp = decode(t, b.send(t, command(allowedUser, "delete", map[string]string{"name": "home"})))
		assert.Equal(t, "Failed to delete: entry not found.", resp.Data.Content)
	})

	t.Run("unknown command is ephemeral", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{})

		resp := decode(t, b.send(t, command(allowedUser, "dance", nil)))

		assert.Equal(t, "Unhandled command.", resp.Data.Content)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	})

	t.Run("throttles chatty users", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 1, time.Minute)
		b := newTestBot(t, fakeFetcher{}, bot.WithLimiter(limiter))

		decode(t, b.send(t, command(allowedUser, "info", map[string]string{"name": "pic"})))
		resp := decode(t, b.send(t, command(allowedUser, "info", map[string]string{"name": "pic"})))

		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	})
}

func TestHandler_Upload(t *testing.T) {
	t.Run("defers then edits with the link", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{data: []byte{1, 2, 3}})

		resp := decode(t, b.send(t, command(allowedUser, "upload", map[string]string{
			"name": "pic",
			"url":  "https://site/a/b.png",
		})))

		assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)
		assert.Equal(t, "[Successfully uploaded file.](https://cdn.example.com/pic)", b.responder.wait(t))

		e, err := b.service.Inspect(context.Background(), "pic")
		require.NoError(t, err)
		assert.Equal(t, "png", e.Ext)
	})

	t.Run("fetch failure edits with an error", func(t *testing.T) {
		b := newTestBot(t, fakeFetcher{err: cdn.ErrFetchFailed})

		decode(t, b.send(t, command(allowedUser, "upload", map[string]string{
			"name": "pic",
			"url":  "https://site/a/b.png",
		})))

		assert.Equal(t, "Failed to fetch URL.", b.responder.wait(t))
	})
}
