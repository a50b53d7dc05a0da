package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/namecdn/internal/messaging"
)

// Publishers bundles the typed publish functions for every analytics topic.
type Publishers struct {
	Created  messaging.Publish[EntryCreatedEvent]
	Deleted  messaging.Publish[EntryDeletedEvent]
	Resolved messaging.Publish[EntryResolvedEvent]
}

// NewPublishers binds one publish function per topic to publisher.
func NewPublishers(publisher message.Publisher) *Publishers {
	return &Publishers{
		Created:  messaging.NewPublishFunc[EntryCreatedEvent](publisher, TopicEntryCreated),
		Deleted:  messaging.NewPublishFunc[EntryDeletedEvent](publisher, TopicEntryDeleted),
		Resolved: messaging.NewPublishFunc[EntryResolvedEvent](publisher, TopicEntryResolved),
	}
}

// NoopPublishers drops every event. Used when analytics are disabled.
func NoopPublishers() *Publishers {
	return &Publishers{
		Created:  messaging.NoopPublish[EntryCreatedEvent](),
		Deleted:  messaging.NoopPublish[EntryDeletedEvent](),
		Resolved: messaging.NoopPublish[EntryResolvedEvent](),
	}
}
