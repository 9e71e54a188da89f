package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/artmarket/handmade-backend/internal/models"
)

// RedisOrderCache is a read-through cache for orders backed by Redis.
// A cache miss is reported as a nil order, not an error.
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOrderCache creates an order cache with the given TTL.
func NewRedisOrderCache(client *redis.Client, ttl time.Duration) *RedisOrderCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves an order from cache. Returns (nil, nil) on miss.
func (c *RedisOrderCache) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	raw, err := c.client.Get(ctx, orderCacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("order cache: get %w", err)
	}

	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		// Corrupted entry, treat as miss and drop it
		_ = c.client.Del(ctx, orderCacheKey(id)).Err()
		return nil, nil
	}

	return &order, nil
}

// Set stores an order in cache with the configured TTL.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("order cache: marshal %w", err)
	}

	if err := c.client.Set(ctx, orderCacheKey(order.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("order cache: set %w", err)
	}
	return nil
}

// Invalidate removes an order from cache.
func (c *RedisOrderCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, orderCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("order cache: invalidate %w", err)
	}
	return nil
}

func orderCacheKey(id uuid.UUID) string {
	return "order:" + id.String()
}
