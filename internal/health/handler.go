package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler reports the health of every registered dependency.
type Handler struct {
	checks map[string]Checker
}

// NewHandler creates a health handler over named checks, e.g. "storage".
func NewHandler(checks map[string]Checker) *Handler {
	return &Handler{checks: checks}
}

// Response is the response for health check endpoint.
type Response struct {
	Status int
	Body   struct {
		Status string            `json:"status" enum:"ok,degraded"`
		Checks map[string]string `json:"checks"`
	}
}

// Check pings every dependency concurrently. Any failure makes the service
// degraded and answers 503.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	resp := &Response{Status: http.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Checks = make(map[string]string, len(h.checks))

	for name, checker := range h.checks {
		wg.Add(1)

		go func() {
			defer wg.Done()

			result := "healthy"
			if err := checker.Ping(ctx); err != nil {
				result = "unhealthy"
			}

			mu.Lock()
			defer mu.Unlock()

			resp.Body.Checks[name] = result
			if result != "healthy" {
				resp.Body.Status = "degraded"
				resp.Status = http.StatusServiceUnavailable
			}
		}()
	}

	wg.Wait()

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
