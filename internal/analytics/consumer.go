package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/namecdn/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumers returns one consumer per analytics topic, each persisting
// into store.
func NewConsumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer(subscriber, TopicEntryCreated, store.SaveEntryCreated, logger),
		messaging.NewConsumer(subscriber, TopicEntryDeleted, store.SaveEntryDeleted, logger),
		messaging.NewConsumer(subscriber, TopicEntryResolved, store.SaveEntryResolved, logger),
	}
}
