package cdn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/namecdn/internal/cdn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write([]byte("image-bytes"))
		case "/empty":
		case "/big":
			_, _ = w.Write(make([]byte, 32))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := cdn.NewHTTPFetcher(srv.Client(), 16)
	ctx := context.Background()

	t.Run("returns the body", func(t *testing.T) {
		data, err := fetcher.Fetch(ctx, srv.URL+"/ok.png")

		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), data)
	})

	t.Run("non-2xx fails", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/missing")

		assert.ErrorIs(t, err, cdn.ErrFetchFailed)
	})

	t.Run("empty body fails", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/empty")

		assert.ErrorIs(t, err, cdn.ErrFetchFailed)
	})

	t.Run("oversized body fails", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/big")

		assert.ErrorIs(t, err, cdn.ErrFetchFailed)
	})

	t.Run("malformed url fails", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "://bad")

		assert.ErrorIs(t, err, cdn.ErrFetchFailed)
	})
}
