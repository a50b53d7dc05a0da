package analytics

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicEntryCreated  = "entry.created"
	TopicEntryDeleted  = "entry.deleted"
	TopicEntryResolved = "entry.resolved"
)

// Source identifies which surface issued a management command.
type Source string

const (
	SourceAPI Source = "api"
	SourceBot Source = "bot"
)

// EntryCreatedEvent is emitted after a file upload or URL shorten succeeds.
type EntryCreatedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url,omitempty"`
	Ext       string    `json:"ext,omitempty"`
	Size      int       `json:"size,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntryDeletedEvent is emitted after an entry is removed.
type EntryDeletedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    Source    `json:"source"`
	DeletedAt time.Time `json:"deletedAt"`
}

// EntryResolvedEvent is emitted for every public resolution of a name.
type EntryResolvedEvent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Outcome    string    `json:"outcome"`
	ClientIP   string    `json:"clientIp,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return uuid.NewString()
}
