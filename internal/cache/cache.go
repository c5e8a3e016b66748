// Package cache provides a small key-value cache with tag-based
// invalidation: every entry may be tagged, and a tag can be dropped along
// with all entries carrying it. The tag index is an explicit Redis set per
// tag, not an implicit global.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type TagCache struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *TagCache {
	return &TagCache{rdb: rdb}
}

// Get unmarshals the cached entry into dest and reports whether it was
// present.
func (c *TagCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores the value under key with the given TTL and registers the key
// under each tag. Tag sets outlive their members by one TTL so invalidation
// still sees keys that expired naturally.
func (c *TagCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	for _, tag := range tags {
		tagKey := c.tagKey(tag)
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, 2*ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate drops every entry registered under the given tags, then the
// tag indexes themselves.
func (c *TagCache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := c.tagKey(tag)

		keys, err := c.rdb.SMembers(ctx, tagKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		pipe := c.rdb.TxPipeline()
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, tagKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *TagCache) tagKey(tag string) string {
	return "cache_tag:" + tag
}
