package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"grocery/internal/domain"
)

// CatalogCache кэш витрины поверх redis. Ошибки redis не ломают чтение:
// при сбое данные берутся из хранилища напрямую.
type CatalogCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	return &CatalogCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CatalogCache) Product(ctx context.Context, id string, load func(ctx context.Context) (*domain.Product, error)) (*domain.Product, error) {
	key := fmt.Sprintf(KeyCatalogProduct, id)
	var p domain.Product
	if c.get(ctx, key, &p) {
		return &p, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*domain.Product)
	return &cp, nil
}

func (c *CatalogCache) Products(ctx context.Context, query string, load func(ctx context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	version, err := c.rdb.Get(ctx, KeyCatalogListVersion).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Catalog cache unavailable", zap.Error(err))
		return load(ctx)
	}
	key := fmt.Sprintf(KeyCatalogList, version, query)

	var list []domain.Product
	if c.get(ctx, key, &list) {
		return list, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Product(nil), v.([]domain.Product)...), nil
}

// Invalidate сбрасывает карточки товаров и все закэшированные списки
func (c *CatalogCache) Invalidate(ctx context.Context, ids ...string) error {
	pipe := c.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, fmt.Sprintf(KeyCatalogProduct, id))
	}
	pipe.Incr(ctx, KeyCatalogListVersion)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

func (c *CatalogCache) get(ctx context.Context, key string, out any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.logger.Warn("Catalog cache entry corrupted", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
