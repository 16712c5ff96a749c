package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "catalog:resp:"
	scanBatch = 200
)

// ResponseCache stores rendered catalog responses.
// Key format: catalog:resp:<request_uri>
type ResponseCache struct {
	client *redis.Client
}

// NewResponseCache creates a ResponseCache wrapping the given Redis client.
func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{client: client}
}

// Get returns the cached body for uri. A miss is not an error.
func (c *ResponseCache) Get(ctx context.Context, uri string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, cacheKey(uri)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return body, true, nil
}

// Set stores body for uri; it expires after ttl.
func (c *ResponseCache) Set(ctx context.Context, uri string, body []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, cacheKey(uri), body, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Purge deletes every cached response whose URI starts with uriPrefix.
func (c *ResponseCache) Purge(ctx context.Context, uriPrefix string) error {
	iter := c.client.Scan(ctx, 0, cacheKey(uriPrefix)+"*", scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache purge: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache purge: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache purge: %w", err)
		}
	}
	return nil
}

func cacheKey(uri string) string {
	return keyPrefix + uri
}
