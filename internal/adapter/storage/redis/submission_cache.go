package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundflow/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// SubmissionCache stores responses to withdrawal submissions keyed by
// Idempotency-Key so that a replayed submission returns the original
// response instead of creating a second request.
type SubmissionCache struct {
	client *goredis.Client
	prefix string
}

var _ ports.SubmissionCache = (*SubmissionCache)(nil)

func NewSubmissionCache(client *goredis.Client) *SubmissionCache {
	return &SubmissionCache{
		client: client,
		prefix: "submission:",
	}
}

// Get returns the cached response for key, or nil if none exists.
func (c *SubmissionCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting cached submission: %w", err)
	}
	return data, nil
}

// Set stores the response for key with the given TTL.
func (c *SubmissionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("caching submission: %w", err)
	}
	return nil
}
