package storage

import (
	"context"
	"errors"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// Cached keeps recently read and written values in a freecache.Cache in
// front of another Store. Only values go through the cache; List always
// hits the backend.
type Cached struct {
	next       Store
	cache      *freecache.Cache
	ttlSeconds int
}

// NewCached creates a cache of sizeMB megabytes (freecache enforces a
// 512KB minimum).
func NewCached(next Store, sizeMB int, ttl time.Duration) *Cached {
	return &Cached{
		next:       next,
		cache:      freecache.NewCache(sizeMB * 1024 * 1024),
		ttlSeconds: int(ttl.Seconds()),
	}
}

func cacheKey(userID, key string) []byte {
	return []byte(userID + "||" + key)
}

func (c *Cached) Get(ctx context.Context, userID, key string) ([]byte, error) {
	if value, err := c.cache.Get(cacheKey(userID, key)); err == nil {
		return value, nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Warnf("cached store get [%s/%s]: %s", userID, key, err)
	}

	value, err := c.next.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	c.put(userID, key, value)
	return value, nil
}

func (c *Cached) Set(ctx context.Context, userID, key string, value []byte) error {
	// drop first, so a failed write never leaves a stale value behind
	c.cache.Del(cacheKey(userID, key))
	if err := c.next.Set(ctx, userID, key, value); err != nil {
		return err
	}
	c.put(userID, key, value)
	return nil
}

func (c *Cached) List(ctx context.Context, userID, prefix string) ([]string, error) {
	return c.next.List(ctx, userID, prefix)
}

func (c *Cached) Delete(ctx context.Context, userID, key string) error {
	c.cache.Del(cacheKey(userID, key))
	return c.next.Delete(ctx, userID, key)
}

func (c *Cached) put(userID, key string, value []byte) {
	if err := c.cache.Set(cacheKey(userID, key), value, c.ttlSeconds); err != nil {
		log.Debugf("cached store: value [%s/%s] not cached: %s", userID, key, err)
	}
}
