package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/namecdn/internal/entry"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS entries (
		name       TEXT PRIMARY KEY,
		kind       SMALLINT NOT NULL,
		url        TEXT,
		ext        TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS entry_blobs (
		name TEXT PRIMARY KEY,
		data BYTEA NOT NULL
	);
`

// PostgresStore is a PostgreSQL implementation of entry.Records and entry.Blobs.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed entry store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)

	return err
}

func (p *PostgresStore) Get(ctx context.Context, name string) (*entry.Entry, error) {
	query := `
		SELECT name, kind, url, ext, created_at
		FROM entries
		WHERE name = $1
	`

	var (
		e        entry.Entry
		kindCode int16
		url      *string
		ext      *string
	)

	err := p.pool.QueryRow(ctx, query, name).Scan(&e.Name, &kindCode, &url, &ext, &e.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entry.ErrNotFound
		}

		return nil, err
	}

	kind, err := entry.KindFromCode(int64(kindCode))
	if err != nil {
		return nil, err
	}

	e.Kind = kind

	if url != nil {
		e.URL = *url
	}

	if ext != nil {
		e.Ext = *ext
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	return &e, nil
}

func (p *PostgresStore) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM entries WHERE name = $1)`, name).Scan(&exists)

	return exists, err
}

// Insert relies on the primary key: a conflicting insert affects no rows and
// is reported as entry.ErrDuplicateName.
func (p *PostgresStore) Insert(ctx context.Context, e *entry.Entry) error {
	query := `
		INSERT INTO entries (name, kind, url, ext, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		e.Name,
		int16(e.Kind.Code()),
		nullableString(e.URL),
		nullableString(e.Ext),
		e.Created.UTC(),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return entry.ErrDuplicateName
	}

	return nil
}

func (p *PostgresStore) DeleteRecord(ctx context.Context, name string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM entries WHERE name = $1`, name)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStore) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	var data []byte

	err := p.pool.QueryRow(ctx, `SELECT data FROM entry_blobs WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entry.ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

// WriteBlob overwrites any previous blob, matching a file write.
func (p *PostgresStore) WriteBlob(ctx context.Context, name string, data []byte) error {
	query := `
		INSERT INTO entry_blobs (name, data)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data
	`

	_, err := p.pool.Exec(ctx, query, name, data)

	return err
}

func (p *PostgresStore) RemoveBlob(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM entry_blobs WHERE name = $1`, name)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return entry.ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.pool.Ping(ctx)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

var (
	_ entry.Records = (*PostgresStore)(nil)
	_ entry.Blobs   = (*PostgresStore)(nil)
)
