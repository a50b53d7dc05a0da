package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/analytics"
	analyticsstore "github.com/serroba/namecdn/internal/analytics/store"
	"github.com/serroba/namecdn/internal/messaging"
	"go.uber.org/zap"
)

// AnalyticsConsumerGroup is the Redis streams consumer group name.
const AnalyticsConsumerGroup = "analytics"

// PublisherGroupPackage provides *analytics.Publishers. Without analytics
// enabled every publisher drops its events.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(pub), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Publishers, error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.Analytics {
			return analytics.NoopPublishers(), nil
		}

		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("analytics require redis: %w", errRedisDisabled)
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return analytics.NewPublishers(group.Publisher()), nil
	})
}

// ConsumerGroupPackage provides the analytics *messaging.ConsumerGroup.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: AnalyticsConsumerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(sub, logger)
		group.Add(analytics.NewConsumers(sub, analyticsstore.NewLogging(logger), logger)...)

		return group, nil
	})
}
