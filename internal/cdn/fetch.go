package cdn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxFetchSize caps remote downloads.
const DefaultMaxFetchSize = 64 << 20

// Fetcher downloads the body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over plain HTTP(S).
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
}

// NewHTTPFetcher creates a fetcher. A nil client gets a 30s timeout client;
// maxSize <= 0 means DefaultMaxFetchSize.
func NewHTTPFetcher(client *http.Client, maxSize int64) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxFetchSize
	}

	return &HTTPFetcher{client: client, maxSize: maxSize}
}

// Fetch returns the response body. Transport errors, non-2xx statuses,
// oversized and empty bodies all yield ErrFetchFailed.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetchFailed, f.maxSize)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrFetchFailed)
	}

	return data, nil
}
