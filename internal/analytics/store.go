package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveEntryCreated(ctx context.Context, event *EntryCreatedEvent) error
	SaveEntryDeleted(ctx context.Context, event *EntryDeletedEvent) error
	SaveEntryResolved(ctx context.Context, event *EntryResolvedEvent) error
}
