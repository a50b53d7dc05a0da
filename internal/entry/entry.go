package entry

import (
	"fmt"
	"time"
)

// Kind is the closed set of entry variants.
type Kind int

const (
	// KindURL entries redirect to a target URL.
	KindURL Kind = iota
	// KindFile entries serve a stored blob.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "URL"
	case KindFile:
		return "File"
	default:
		return fmt.Sprintf("Unknown: %d", int(k))
	}
}

// Valid reports whether k is one of the known variants.
func (k Kind) Valid() bool {
	return k == KindURL || k == KindFile
}

// KindFromCode maps the persisted integer code back to a Kind.
// Unknown codes are reported as ErrCorruptEntry.
func KindFromCode(code int64) (Kind, error) {
	k := Kind(code)
	if !k.Valid() {
		return 0, fmt.Errorf("%w: unknown kind %d", ErrCorruptEntry, code)
	}

	return k, nil
}

// Code returns the integer stored for k at the storage boundary.
func (k Kind) Code() int64 {
	return int64(k)
}

// Entry is a named CDN entry.
type Entry struct {
	Name    string
	Kind    Kind
	URL     string // KindURL only
	Ext     string // KindFile only, empty when no hint was given
	Created time.Time
}

// NewURLEntry builds a redirect entry.
func NewURLEntry(name, url string, created time.Time) *Entry {
	return &Entry{Name: name, Kind: KindURL, URL: url, Created: created}
}

// NewFileEntry builds a file entry with an optional extension hint.
func NewFileEntry(name, ext string, created time.Time) *Entry {
	return &Entry{Name: name, Kind: KindFile, Ext: ext, Created: created}
}

// Validate checks the variant invariants of e.
func (e *Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrCorruptEntry)
	}

	switch e.Kind {
	case KindURL:
		if e.Ext != "" {
			return fmt.Errorf("%w: url entry %q carries ext", ErrCorruptEntry, e.Name)
		}
	case KindFile:
		if e.URL != "" {
			return fmt.Errorf("%w: file entry %q carries url", ErrCorruptEntry, e.Name)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrCorruptEntry, int(e.Kind))
	}

	return nil
}
