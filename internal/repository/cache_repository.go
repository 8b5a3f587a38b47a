package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/snapclass/picday-api/pkg/errors"
)

// CacheRepository provides helpers around Redis for caching directory
// lookups (event rosters) during code generation.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository. A nil client degrades
// to cache misses so the service keeps working without Redis.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
// Failures are logged, not returned; caching is best effort.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		r.logger.Sugar().Warnw("marshal cache value failed", "key", key, "error", err)
		return
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.logger.Sugar().Warnw("redis set failed", "key", key, "error", err)
	}
}
