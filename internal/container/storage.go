package container

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/entry"
	"github.com/serroba/namecdn/internal/fss"
	"github.com/serroba/namecdn/internal/health"
	"github.com/serroba/namecdn/internal/store"
	"go.uber.org/zap"
)

const storageBootTimeout = 30 * time.Second

// StorageBackend is a concrete record and blob backend.
type StorageBackend interface {
	entry.Records
	entry.Blobs
	health.Checker
}

func newBackend(ctx context.Context, i *do.Injector, opts *Options) (StorageBackend, error) {
	switch opts.Storage {
	case "postgres":
		pool := do.MustInvoke[*PostgresPool](i)
		backend := store.NewPostgresStore(pool.Pool)

		if err := backend.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate entries schema: %w", err)
		}

		return backend, nil
	case "remote":
		if opts.StorageServer == "" {
			return nil, fmt.Errorf("remote storage requires a storage server")
		}

		backend := store.NewRemoteStore(fss.New(opts.StorageServer, opts.StorageToken))

		if err := backend.Bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap remote storage: %w", err)
		}

		return backend, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// StoragePackage provides the selected StorageBackend and the *entry.Store
// built on it. With Redis configured, record lookups go through the cache.
func StoragePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (StorageBackend, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), storageBootTimeout)
		defer cancel()

		backend, err := newBackend(ctx, i, opts)
		if err != nil {
			return nil, err
		}

		logger.Info("storage ready", zap.String("backend", opts.Storage))

		return backend, nil
	})

	do.Provide(injector, func(i *do.Injector) (*entry.Store, error) {
		opts := do.MustInvoke[*Options](i)
		backend := do.MustInvoke[StorageBackend](i)

		var records entry.Records = backend
		if opts.RedisAddr != "" {
			client := do.MustInvoke[*RedisClient](i)
			ttl := time.Duration(opts.CacheTTLSeconds) * time.Second
			records = store.NewRedisCacheRecords(backend, client.Client, ttl)
		}

		return entry.NewStore(records, backend), nil
	})
}
