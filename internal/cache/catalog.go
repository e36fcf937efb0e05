package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go-roastery-api/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogKey = "catalog:storefront"

// CatalogCache stores the storefront product listing
type CatalogCache interface {
	// Get reports a miss with ok=false; errors are logged and treated as misses
	Get(ctx context.Context) (products []model.StorefrontProduct, ok bool)
	Set(ctx context.Context, products []model.StorefrontProduct)
	Invalidate(ctx context.Context)
}

type redisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) CatalogCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisCatalogCache{client: client, ttl: ttl, logger: logger.Named("catalog_cache")}
}

func (c *redisCatalogCache) Get(ctx context.Context) ([]model.StorefrontProduct, bool) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to read catalog from cache", zap.Error(err))
		return nil, false
	}

	var products []model.StorefrontProduct
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn("Discarding undecodable catalog cache entry", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *redisCatalogCache) Set(ctx context.Context, products []model.StorefrontProduct) {
	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("Failed to encode catalog for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write catalog to cache", zap.Error(err))
	}
}

func (c *redisCatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

// memoryCatalogCache is the single-process fallback
type memoryCatalogCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	products []model.StorefrontProduct
	expires  time.Time
}

func NewMemoryCatalogCache(ttl time.Duration) CatalogCache {
	return &memoryCatalogCache{ttl: ttl}
}

func (c *memoryCatalogCache) Get(context.Context) ([]model.StorefrontProduct, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.products == nil || time.Now().After(c.expires) {
		return nil, false
	}
	out := make([]model.StorefrontProduct, len(c.products))
	copy(out, c.products)
	return out, true
}

func (c *memoryCatalogCache) Set(_ context.Context, products []model.StorefrontProduct) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = make([]model.StorefrontProduct, len(products))
	copy(c.products, products)
	c.expires = time.Now().Add(c.ttl)
}

func (c *memoryCatalogCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
}
