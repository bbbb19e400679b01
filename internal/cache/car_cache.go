package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"car-marketplace/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const featuredKeyPrefix = "cars:featured"

// CarCache caches the featured cars list. Failures are logged and reported
// as misses so callers fall back to the database.
type CarCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCarCache creates a CarCache. A nil client disables caching.
func NewCarCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *CarCache {
	return &CarCache{client: client, ttl: ttl, logger: logger}
}

func featuredKey(limit int) string {
	return fmt.Sprintf("%s:%d", featuredKeyPrefix, limit)
}

// Featured returns the cached featured list for limit
func (c *CarCache) Featured(ctx context.Context, limit int) ([]*domain.Car, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, featuredKey(limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read featured cars from cache", zap.Error(err))
		}
		return nil, false
	}

	var cars []*domain.Car
	if err := json.Unmarshal(payload, &cars); err != nil {
		c.logger.Warn("Discarding malformed featured cars cache entry", zap.Error(err))
		return nil, false
	}

	return cars, true
}

// StoreFeatured caches the featured list for limit
func (c *CarCache) StoreFeatured(ctx context.Context, limit int, cars []*domain.Car) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(cars)
	if err != nil {
		c.logger.Warn("Failed to encode featured cars", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, featuredKey(limit), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache featured cars", zap.Error(err))
	}
}

// Invalidate drops every cached featured list
func (c *CarCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, featuredKeyPrefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Failed to scan featured cars cache", zap.Error(err))
		return
	}

	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Failed to invalidate featured cars cache", zap.Error(err))
	}
}
