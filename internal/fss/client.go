// Package fss is a client for the remote file storage service that holds
// blobs and the entries table. Every operation is a multipart POST to
// <server>/api carrying a "command" field and the bearer token.
package fss

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned when the service rejects the token.
	ErrUnauthorized = errors.New("invalid token")

	// ErrNotFound is returned when the addressed path does not exist.
	ErrNotFound = errors.New("no such file")
)

// Kind classifies a service-reported error.
type Kind int

const (
	KindBadRequest Kind = iota
	KindInternal
)

// Error is an error reported by the storage service.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Kind == KindInternal {
		return fmt.Sprintf("storage internal error (%d): %s", e.Status, e.Message)
	}

	return fmt.Sprintf("storage bad request (%d): %s", e.Status, e.Message)
}

// Client talks to one storage server.
type Client struct {
	server string
	token  string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for server authenticated with token.
func New(server, token string, opts ...Option) *Client {
	c := &Client{
		server: strings.TrimSuffix(server, "/"),
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type upload struct {
	name string
	data []byte
}

func (c *Client) request(
	ctx context.Context, command string, fields map[string]string, file *upload,
) (*http.Response, error) {
	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	if err := form.WriteField("command", command); err != nil {
		return nil, err
	}

	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	if file != nil {
		part, err := form.CreateFormFile("file", file.name)
		if err != nil {
			return nil, err
		}

		if _, err = part.Write(file.data); err != nil {
			return nil, err
		}
	}

	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"/api", &body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", command, err)
	}

	if err := checkResponse(command, resp); err != nil {
		resp.Body.Close()

		return nil, fmt.Errorf("storage %s: %w", command, err)
	}

	return resp, nil
}

// fileCommands report a missing path through the error message rather
// than the status.
var fileCommands = map[string]bool{"read": true, "rm": true}

func checkResponse(command string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	}

	var payload struct {
		Error string `json:"error"`
	}

	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	if fileCommands[command] && isNotFoundMessage(payload.Error) {
		return fmt.Errorf("%w: %s", ErrNotFound, payload.Error)
	}

	kind := KindBadRequest
	if resp.StatusCode >= 500 {
		kind = KindInternal
	}

	return &Error{Kind: kind, Status: resp.StatusCode, Message: payload.Error}
}

func isNotFoundMessage(msg string) bool {
	msg = strings.ToLower(msg)

	return strings.Contains(msg, "no such file") ||
		strings.Contains(msg, "notfound") ||
		strings.Contains(msg, "not found")
}

// Read returns the contents stored at path.
func (c *Client) Read(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.request(ctx, "read", map[string]string{"path": path}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// Write stores data at path, replacing any previous contents.
func (c *Client) Write(ctx context.Context, path string, data []byte) error {
	resp, err := c.request(ctx, "write", nil, &upload{name: path, data: data})
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

// Remove deletes path.
func (c *Client) Remove(ctx context.Context, path string) error {
	resp, err := c.request(ctx, "rm", map[string]string{"path": path}, nil)
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

// Query runs sql with positional params and returns the raw JSON rows.
// Decoding rows into typed values is left to the caller.
func (c *Client) Query(ctx context.Context, sql string, params ...any) ([]json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	resp, err := c.request(ctx, "sql", map[string]string{
		"query":  sql,
		"params": string(encoded),
	}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	return rows, nil
}

// Ping verifies the server answers authenticated requests.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "SELECT 1")

	return err
}
