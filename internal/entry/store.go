package entry

import (
	"context"
	"errors"
	"fmt"
)

// Records persists entry rows.
type Records interface {
	Get(ctx context.Context, name string) (*Entry, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Insert returns ErrDuplicateName when the backend rejects the name.
	Insert(ctx context.Context, e *Entry) error
	// DeleteRecord reports whether a row was removed.
	DeleteRecord(ctx context.Context, name string) (bool, error)
}

// Blobs persists file contents keyed by entry name.
type Blobs interface {
	ReadBlob(ctx context.Context, name string) ([]byte, error)
	WriteBlob(ctx context.Context, name string, data []byte) error
	// RemoveBlob returns ErrNotFound when nothing is stored under name.
	RemoveBlob(ctx context.Context, name string) error
}

// Store is the typed entry adapter over a records backend and a blob backend.
type Store struct {
	records Records
	blobs   Blobs
}

// NewStore creates a Store.
func NewStore(records Records, blobs Blobs) *Store {
	return &Store{records: records, blobs: blobs}
}

// Get returns the entry named name or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (*Entry, error) {
	return s.records.Get(ctx, name)
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.records.Exists(ctx, name)
}

// Create inserts e. The existence check runs right before the insert; a
// concurrent insert that wins the race still surfaces as ErrDuplicateName
// through the backend's key constraint.
func (s *Store) Create(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	exists, err := s.records.Exists(ctx, e.Name)
	if err != nil {
		return fmt.Errorf("check entry %q: %w", e.Name, err)
	}

	if exists {
		return ErrDuplicateName
	}

	if err := s.records.Insert(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return ErrDuplicateName
		}

		return fmt.Errorf("insert entry %q: %w", e.Name, err)
	}

	return nil
}

// Delete removes the blob (a missing blob is fine) and then the record.
// It returns false when no record existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	exists, err := s.records.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check entry %q: %w", name, err)
	}

	if !exists {
		return false, nil
	}

	if err := s.blobs.RemoveBlob(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("remove blob %q: %w", name, err)
	}

	deleted, err := s.records.DeleteRecord(ctx, name)
	if err != nil {
		return false, fmt.Errorf("delete entry %q: %w", name, err)
	}

	return deleted, nil
}

func (s *Store) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	return s.blobs.ReadBlob(ctx, name)
}

func (s *Store) WriteBlob(ctx context.Context, name string, data []byte) error {
	return s.blobs.WriteBlob(ctx, name, data)
}
