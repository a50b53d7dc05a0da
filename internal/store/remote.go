package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/serroba/namecdn/internal/entry"
	"github.com/serroba/namecdn/internal/fss"
)

// RemoteSchema is the bootstrap statement for the remote entries table.
const RemoteSchema = "CREATE TABLE IF NOT EXISTS entries " +
	"(name TEXT PRIMARY KEY, type INTEGER NOT NULL, url TEXT, created TEXT NOT NULL, ext TEXT)"

// RemoteClient is the subset of fss.Client used by RemoteStore.
type RemoteClient interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Remove(ctx context.Context, path string) error
	Query(ctx context.Context, sql string, params ...any) ([]json.RawMessage, error)
	Ping(ctx context.Context) error
}

// RemoteStore keeps entries and blobs on the remote storage service.
// Blobs live at the entry name; rows live in the entries table.
type RemoteStore struct {
	client RemoteClient
}

// NewRemoteStore creates a store backed by the storage service client.
func NewRemoteStore(client RemoteClient) *RemoteStore {
	return &RemoteStore{client: client}
}

// Bootstrap creates the entries table if needed.
func (r *RemoteStore) Bootstrap(ctx context.Context) error {
	if _, err := r.client.Query(ctx, RemoteSchema); err != nil {
		return fmt.Errorf("bootstrap entries table: %w", err)
	}

	return nil
}

// remoteRow mirrors a row of the entries table as the service returns it.
// Pointers distinguish SQL NULL from empty values.
type remoteRow struct {
	Name    *string         `json:"name"`
	Type    *int64          `json:"type"`
	URL     *string         `json:"url"`
	Created json.RawMessage `json:"created"`
	Ext     *string         `json:"ext"`
}

func decodeRemoteRow(raw json.RawMessage) (*entry.Entry, error) {
	var row remoteRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", entry.ErrCorruptEntry, err)
	}

	if row.Name == nil || *row.Name == "" {
		return nil, fmt.Errorf("%w: row without name", entry.ErrCorruptEntry)
	}

	if row.Type == nil {
		return nil, fmt.Errorf("%w: row %q without type", entry.ErrCorruptEntry, *row.Name)
	}

	kind, err := entry.KindFromCode(*row.Type)
	if err != nil {
		return nil, err
	}

	created, err := parseMillis(row.Created)
	if err != nil {
		return nil, fmt.Errorf("%w: row %q: %v", entry.ErrCorruptEntry, *row.Name, err)
	}

	e := &entry.Entry{Name: *row.Name, Kind: kind, Created: created}

	switch kind {
	case entry.KindURL:
		if row.URL == nil {
			return nil, fmt.Errorf("%w: url entry %q without url", entry.ErrCorruptEntry, e.Name)
		}

		e.URL = *row.URL
	case entry.KindFile:
		if row.Ext != nil {
			e.Ext = *row.Ext
		}
	}

	return e, nil
}

// parseMillis accepts the created column as either a JSON string or number of
// Unix milliseconds.
func parseMillis(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errors.New("missing created")
	}

	text := string(raw)

	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return time.Time{}, err
		}
	}

	ms, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("created %q: %w", text, err)
	}

	return time.UnixMilli(ms), nil
}

func (r *RemoteStore) Get(ctx context.Context, name string) (*entry.Entry, error) {
	rows, err := r.client.Query(ctx, "SELECT name, type, url, created, ext FROM entries WHERE name = ?", name)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, entry.ErrNotFound
	}

	return decodeRemoteRow(rows[0])
}

func (r *RemoteStore) Exists(ctx context.Context, name string) (bool, error) {
	rows, err := r.client.Query(ctx, "SELECT name FROM entries WHERE name = ?", name)
	if err != nil {
		return false, err
	}

	return len(rows) > 0, nil
}

func (r *RemoteStore) Insert(ctx context.Context, e *entry.Entry) error {
	var url, ext any
	if e.URL != "" {
		url = e.URL
	}

	if e.Ext != "" {
		ext = e.Ext
	}

	_, err := r.client.Query(ctx,
		"INSERT INTO entries(name, type, created, url, ext) VALUES(?, ?, ?, ?, ?)",
		e.Name, e.Kind.Code(), strconv.FormatInt(e.Created.UnixMilli(), 10), url, ext,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return entry.ErrDuplicateName
		}

		return err
	}

	return nil
}

func isConstraintViolation(err error) bool {
	var storageErr *fss.Error
	if !errors.As(err, &storageErr) {
		return false
	}

	msg := strings.ToUpper(storageErr.Message)

	return strings.Contains(msg, "UNIQUE CONSTRAINT") || strings.Contains(msg, "PRIMARY KEY")
}

func (r *RemoteStore) DeleteRecord(ctx context.Context, name string) (bool, error) {
	exists, err := r.Exists(ctx, name)
	if err != nil || !exists {
		return false, err
	}

	if _, err := r.client.Query(ctx, "DELETE FROM entries WHERE name = ?", name); err != nil {
		return false, err
	}

	return true, nil
}

func (r *RemoteStore) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	data, err := r.client.Read(ctx, name)
	if errors.Is(err, fss.ErrNotFound) {
		return nil, entry.ErrNotFound
	}

	return data, err
}

func (r *RemoteStore) WriteBlob(ctx context.Context, name string, data []byte) error {
	return r.client.Write(ctx, name, data)
}

func (r *RemoteStore) RemoveBlob(ctx context.Context, name string) error {
	err := r.client.Remove(ctx, name)
	if errors.Is(err, fss.ErrNotFound) {
		return entry.ErrNotFound
	}

	return err
}

// Ping checks the storage service is reachable with the configured token.
func (r *RemoteStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

var (
	_ entry.Records = (*RemoteStore)(nil)
	_ entry.Blobs   = (*RemoteStore)(nil)
	_ RemoteClient  = (*fss.Client)(nil)
)
