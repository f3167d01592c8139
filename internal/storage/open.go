package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"erp/portal/internal/config"
	"erp/portal/internal/db"
)

// Open builds the store selected by cfg.StorageDriver. Clients that must be
// closed at shutdown are handed back to the caller through closers.
func Open(ctx context.Context, cfg config.Config) (Store, []func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		return NewMemory(), nil, nil
	case "file":
		store, err := OpenFile(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		closeRedis := func() { _ = client.Close() }
		return NewRedis(client, cfg.StorageTTL), []func(){closeRedis}, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connection failed: %w", err)
		}
		store := NewPostgres(db.NewStore(pool))
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("storage schema: %w", err)
		}
		return store, []func(){pool.Close}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StorageDriver)
	}
}
