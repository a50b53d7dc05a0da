package store

import (
	"context"

	"github.com/serroba/namecdn/internal/analytics"
	"go.uber.org/zap"
)

// Logging is an analytics.Store that writes every event to the log.
type Logging struct {
	logger *zap.Logger
}

// NewLogging creates a logging analytics store.
func NewLogging(logger *zap.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) SaveEntryCreated(_ context.Context, event *analytics.EntryCreatedEvent) error {
	l.logger.Info("entry created event received",
		zap.String("id", event.ID),
		zap.String("name", event.Name),
		zap.String("kind", event.Kind),
		zap.String("ext", event.Ext),
		zap.Int("size", event.Size),
		zap.String("source", string(event.Source)),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (l *Logging) SaveEntryDeleted(_ context.Context, event *analytics.EntryDeletedEvent) error {
	l.logger.Info("entry deleted event received",
		zap.String("id", event.ID),
		zap.String("name", event.Name),
		zap.String("source", string(event.Source)),
		zap.Time("deletedAt", event.DeletedAt),
	)

	return nil
}

func (l *Logging) SaveEntryResolved(_ context.Context, event *analytics.EntryResolvedEvent) error {
	l.logger.Info("entry resolved event received",
		zap.String("id", event.ID),
		zap.String("name", event.Name),
		zap.String("outcome", event.Outcome),
		zap.String("clientIp", event.ClientIP),
		zap.String("userAgent", event.UserAgent),
		zap.Time("resolvedAt", event.ResolvedAt),
	)

	return nil
}

var _ analytics.Store = (*Logging)(nil)
