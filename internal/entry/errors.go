package entry

import "errors"

var (
	// ErrNotFound is returned when no entry (or blob) exists under a name.
	ErrNotFound = errors.New("entry doesn't exist")

	// ErrDuplicateName is returned when creating an entry whose name is taken.
	ErrDuplicateName = errors.New("entry already exists")

	// ErrCorruptEntry is returned when a stored row cannot be decoded into an Entry.
	ErrCorruptEntry = errors.New("corrupt entry")
)
