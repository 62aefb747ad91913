package product

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	pkgredis "github.com/osoriodev/tienda-backend/pkg/redis"
)

// notFoundSentinel is cached for ids that resolved to no row, so repeated
// lookups of a missing product do not hit the database every time.
const notFoundSentinel = "__not_found__"

// ErrCacheMiss signals the caller must fall through to the database.
var ErrCacheMiss = errors.New("product cache miss")

// ErrCachedNotFound signals a cached negative lookup.
var ErrCachedNotFound = errors.New("product cached as not found")

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Cache is a read-through cache for single-product lookups. All methods are
// best effort; storage failures degrade to database reads.
type Cache struct {
	store cacheStore
	ttl   time.Duration
}

// NewCache builds a product cache with the provided TTL.
func NewCache(store cacheStore, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{store: store, ttl: ttl}
}

func cacheKey(id int64) string {
	return pkgredis.Key("product", strconv.FormatInt(id, 10))
}

// GetProduct returns the cached DTO, ErrCachedNotFound for a cached negative
// entry, or ErrCacheMiss when the key is absent or unreadable.
func (c *Cache) GetProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	raw, err := c.store.Get(ctx, cacheKey(id))
	if err != nil {
		// Missing key and transport failure both degrade to a DB read.
		return nil, ErrCacheMiss
	}
	if raw == notFoundSentinel {
		return nil, ErrCachedNotFound
	}

	var dto ProductDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return nil, ErrCacheMiss
	}
	return &dto, nil
}

// SetProduct caches the DTO under the product key.
func (c *Cache) SetProduct(ctx context.Context, dto *ProductDTO) error {
	payload, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, cacheKey(dto.ID), string(payload), c.ttl)
}

// SetNotFound caches a negative lookup for the id.
func (c *Cache) SetNotFound(ctx context.Context, id int64) error {
	return c.store.Set(ctx, cacheKey(id), notFoundSentinel, c.ttl)
}

// Invalidate drops the cached entries for the given product ids.
func (c *Cache) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(id))
	}
	return c.store.Del(ctx, keys...)
}
