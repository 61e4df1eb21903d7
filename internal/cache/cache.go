// Package cache holds catalog read results in Redis so the storefront's hot
// listing endpoints avoid hitting Postgres on every request. Failures are
// logged and degrade to cache misses; the cache is never authoritative.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/zglowawpiorach/backend/internal/domain"
)

// Product listing cache keys, one per status filter. Kept as a fixed set so
// invalidation can delete them all without a key scan.
const (
	KeyProductsActive = "products:active"
	KeyProductsSold   = "products:sold"
	KeyProductsAll    = "products:all"
)

var productKeys = []string{KeyProductsActive, KeyProductsSold, KeyProductsAll}

type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// New returns a catalog cache client, or nil when addr is empty (callers
// treat a nil client as cache-disabled).
func New(addr, password, prefix string, ttl time.Duration, logger zerolog.Logger) *Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Client{
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// GetProducts returns the cached listing for key and whether it was present.
func (c *Client) GetProducts(ctx context.Context, key string) ([]domain.Product, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, dropping")
		_ = c.rdb.Del(ctx, c.prefix+key).Err()
		return nil, false
	}
	return products, true
}

func (c *Client) SetProducts(ctx context.Context, key string, products []domain.Product) {
	if c == nil {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// InvalidateProducts drops every product listing entry. Called after any
// reservation transition that changes availability.
func (c *Client) InvalidateProducts(ctx context.Context) {
	if c == nil {
		return
	}
	keys := make([]string, 0, len(productKeys))
	for _, key := range productKeys {
		keys = append(keys, c.prefix+key)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}
