// Package client talks to the namecdn management API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound matches errors for absent entries.
var ErrNotFound = errors.New("entry not found")

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Entry is an entry as reported by the server.
type Entry struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	URL     string    `json:"url,omitempty"`
	Ext     string    `json:"ext,omitempty"`
	Created time.Time `json:"created"`
}

// Client is a management API client.
type Client struct {
	server string
	token  string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a client for the server at base URL server.
func New(server, token string, opts ...Option) *Client {
	c := &Client{
		server: strings.TrimSuffix(server, "/"),
		token:  token,
		http:   &http.Client{Timeout: time.Minute},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", c.token)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}

		return &Error{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// UploadFile stores the contents of r under name.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader, ext string) error {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	if err := w.WriteField("name", name); err != nil {
		return err
	}

	if ext != "" {
		if err := w.WriteField("ext", ext); err != nil {
			return err
		}
	}

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, r); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, "/api/files", w.FormDataContentType(), &buf, nil)
}

// ShortenURL registers name as a redirect to target.
func (c *Client) ShortenURL(ctx context.Context, name, target string) error {
	body, err := json.Marshal(map[string]string{"name": name, "url": target})
	if err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, "/api/urls", "application/json", bytes.NewReader(body), nil)
}

// GetEntry fetches the entry named name.
func (c *Client) GetEntry(ctx context.Context, name string) (*Entry, error) {
	var e Entry
	if err := c.do(ctx, http.MethodGet, "/api/entries/"+url.PathEscape(name), "", nil, &e); err != nil {
		return nil, err
	}

	return &e, nil
}

// DeleteEntry removes the entry named name.
func (c *Client) DeleteEntry(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/entries/"+url.PathEscape(name), "", nil, nil)
}
