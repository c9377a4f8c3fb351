package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/commercekit/skusync/internal/config"
	"github.com/commercekit/skusync/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	runCacheKeyPrefix = "allocation:runs"
	runCacheScanBatch = 100
	shortageCacheKey  = "allocation:shortages:latest"
)

// RunCache caches status-API reads of allocation runs and shortages.
type RunCache interface {
	GetRuns(ctx context.Context, limit int) ([]domain.AllocationRun, bool, error)
	SetRuns(ctx context.Context, limit int, runs []domain.AllocationRun) error
	GetShortages(ctx context.Context) ([]domain.Shortage, bool, error)
	SetShortages(ctx context.Context, shortages []domain.Shortage) error
	InvalidateAll(ctx context.Context) error
}

type redisRunCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRunCache struct{}

func NewRunCache(cfg config.CacheConfig) (RunCache, error) {
	if !cfg.Enabled {
		return &noopRunCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRunCache{client: client, ttl: ttl}, nil
}

func NewNoopRunCache() RunCache { return &noopRunCache{} }

func (c *redisRunCache) GetRuns(ctx context.Context, limit int) ([]domain.AllocationRun, bool, error) {
	payload, err := c.client.Get(ctx, runsKey(limit)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var runs []domain.AllocationRun
	if err := json.Unmarshal(payload, &runs); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached runs: %w", err)
	}
	return runs, true, nil
}

func (c *redisRunCache) SetRuns(ctx context.Context, limit int, runs []domain.AllocationRun) error {
	payload, err := json.Marshal(runs)
	if err != nil {
		return fmt.Errorf("failed to encode runs: %w", err)
	}
	return c.client.Set(ctx, runsKey(limit), payload, c.ttl).Err()
}

func (c *redisRunCache) GetShortages(ctx context.Context) ([]domain.Shortage, bool, error) {
	payload, err := c.client.Get(ctx, shortageCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var shortages []domain.Shortage
	if err := json.Unmarshal(payload, &shortages); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached shortages: %w", err)
	}
	return shortages, true, nil
}

func (c *redisRunCache) SetShortages(ctx context.Context, shortages []domain.Shortage) error {
	payload, err := json.Marshal(shortages)
	if err != nil {
		return fmt.Errorf("failed to encode shortages: %w", err)
	}
	return c.client.Set(ctx, shortageCacheKey, payload, c.ttl).Err()
}

func (c *redisRunCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, runCacheKeyPrefix, runCacheScanBatch); err != nil {
		return err
	}
	return c.client.Del(ctx, shortageCacheKey).Err()
}

func runsKey(limit int) string {
	return fmt.Sprintf("%s:%d", runCacheKeyPrefix, limit)
}

func (noopRunCache) GetRuns(context.Context, int) ([]domain.AllocationRun, bool, error) {
	return nil, false, nil
}
func (noopRunCache) SetRuns(context.Context, int, []domain.AllocationRun) error { return nil }
func (noopRunCache) GetShortages(context.Context) ([]domain.Shortage, bool, error) {
	return nil, false, nil
}
func (noopRunCache) SetShortages(context.Context, []domain.Shortage) error { return nil }
func (noopRunCache) InvalidateAll(context.Context) error                   { return nil }
