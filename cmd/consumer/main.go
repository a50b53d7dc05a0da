package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/container"
	"github.com/serroba/namecdn/internal/messaging"
	"go.uber.org/zap"
)

// The analytics consumer drains entry.created, entry.deleted and
// entry.resolved from Redis streams into the analytics store. Run as many
// as needed; they share the analytics consumer group.
func main() {
	opts := &container.Options{
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Analytics: true,
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build analytics consumers", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("consuming analytics",
		zap.String("redis", opts.RedisAddr),
		zap.String("group", container.AnalyticsConsumerGroup),
		zap.Strings("topics", []string{
			analytics.TopicEntryCreated,
			analytics.TopicEntryDeleted,
			analytics.TopicEntryResolved,
		}),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}
