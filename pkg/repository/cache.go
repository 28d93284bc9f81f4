package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"

	"github.com/y-kuroda/mnemo/pkg/model"
)

const (
	cacheKeyPrefix     = "mnemo:memory:"
	cachePayloadPrefix = "mnemo:payload:"
)

// Cache decorates a Store with a Redis read-through cache for single
// record lookups. Cache misses and Redis failures fall through to the
// wrapped store; writes invalidate the affected keys.
type Cache struct {
	Store

	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps store with a Redis cache. The ttl bounds staleness of
// cached records against writers that bypass this process.
func NewCache(addr string, store Store, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse redis address", goerr.V("addr", addr))
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", addr))
	}

	return &Cache{Store: store, client: client, ttl: ttl}, nil
}

func cacheKey(id model.MemoryID) string {
	return cacheKeyPrefix + string(id)
}

func payloadKey(id model.MemoryID) string {
	return cachePayloadPrefix + string(id)
}

func (c *Cache) Get(ctx context.Context, id model.MemoryID, ident model.Identity) (RawRecord, error) {
	// Identity-scoped lookups are cached per record; the identity check
	// still runs on the cached copy.
	if data, err := c.client.Get(ctx, cacheKey(id)).Bytes(); err == nil {
		var raw RawRecord
		if err := json.Unmarshal(data, &raw); err == nil {
			if identityMatches(raw, ident) {
				return raw, nil
			}
			return nil, nil
		}
	}

	raw, err := c.Store.Get(ctx, id, ident)
	if err != nil || raw == nil {
		return raw, err
	}

	if data, err := json.Marshal(raw); err == nil {
		c.client.Set(ctx, cacheKey(id), data, c.ttl)
	}
	return raw, nil
}

// GetPayload caches the raw storage payload under its own key space,
// since its shape differs from the Get record for the same id.
func (c *Cache) GetPayload(ctx context.Context, id model.MemoryID) (RawRecord, error) {
	if data, err := c.client.Get(ctx, payloadKey(id)).Bytes(); err == nil {
		var raw RawRecord
		if err := json.Unmarshal(data, &raw); err == nil {
			return raw, nil
		}
	}

	raw, err := c.Store.GetPayload(ctx, id)
	if err != nil || raw == nil {
		return raw, err
	}

	if data, err := json.Marshal(raw); err == nil {
		c.client.Set(ctx, payloadKey(id), data, c.ttl)
	}
	return raw, nil
}

func (c *Cache) Update(ctx context.Context, input *UpdateInput) (RawRecord, error) {
	raw, err := c.Store.Update(ctx, input)
	if err == nil {
		c.client.Del(ctx, cacheKey(input.ID), payloadKey(input.ID))
	}
	return raw, err
}

func (c *Cache) Delete(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error) {
	deleted, err := c.Store.Delete(ctx, id, ident)
	if deleted {
		c.client.Del(ctx, cacheKey(id), payloadKey(id))
	}
	return deleted, err
}

func (c *Cache) DeleteAll(ctx context.Context, ident model.Identity) (int, error) {
	count, err := c.Store.DeleteAll(ctx, ident)
	if err == nil {
		// Records were removed by identity filter, not by key; drop the
		// whole cache namespace rather than tracking per-key membership.
		for _, prefix := range []string{cacheKeyPrefix, cachePayloadPrefix} {
			iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
			for iter.Next(ctx) {
				c.client.Del(ctx, iter.Val())
			}
		}
	}
	return count, err
}

func (c *Cache) Close() error {
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close redis client")
	}
	return c.Store.Close()
}
