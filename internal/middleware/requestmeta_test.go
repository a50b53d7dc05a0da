package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/namecdn/internal/handlers"
	"github.com/serroba/namecdn/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metaOutput struct {
	Body handlers.RequestMeta
}

// setupMetaAPI registers /meta, which echoes the request metadata it sees.
func setupMetaAPI(t *testing.T) *chi.Mux {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(func() string { return "req-1" }))

	huma.Get(api, "/meta", func(ctx context.Context, _ *struct{}) (*metaOutput, error) {
		return &metaOutput{Body: handlers.RequestMetaFromContext(ctx)}, nil
	})

	return router
}

func fetchMeta(t *testing.T, router http.Handler, headers map[string]string) (handlers.RequestMeta, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	req.RemoteAddr = "10.0.0.9:4444"

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var meta handlers.RequestMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))

	return meta, w
}

func TestRequestMeta(t *testing.T) {
	router := setupMetaAPI(t)

	t.Run("captures user agent and referrer", func(t *testing.T) {
		meta, _ := fetchMeta(t, router, map[string]string{
			"User-Agent": testUserAgent,
			"Referer":    "https://example.com",
		})

		assert.Equal(t, testUserAgent, meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
	})

	t.Run("generates a request id and echoes it", func(t *testing.T) {
		meta, w := fetchMeta(t, router, nil)

		assert.Equal(t, "req-1", meta.RequestID)
		assert.Equal(t, "req-1", w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("keeps an inbound request id", func(t *testing.T) {
		meta, _ := fetchMeta(t, router, map[string]string{middleware.RequestIDHeader: "upstream-7"})

		assert.Equal(t, "upstream-7", meta.RequestID)
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"single forwarded ip", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "203.0.113.1"},
		{"first of forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"real ip header", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
		{"remote address", nil, "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, _ := fetchMeta(t, router, tt.headers)

			assert.Equal(t, tt.want, meta.ClientIP)
		})
	}
}
