// Package cache keeps analysis results in Redis, keyed by document content, extraction family and rules version.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/resume-analyzer/internal/types"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long cached results live when no TTL is configured
const DefaultTTL = 24 * time.Hour

const keyPrefix = "analysis"

// ResultCache handles Redis operations for analysis results
type ResultCache struct {
	client redis.Cmdable
	ttl    time.Duration
	closer func() error
}

// New creates a cache over an existing client. A ttl <= 0 uses DefaultTTL.
func New(client redis.Cmdable, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{client: client, ttl: ttl}
}

// Connect dials addr and verifies it with a ping
func Connect(ctx context.Context, addr string, ttl time.Duration) (*ResultCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	c := New(rdb, ttl)
	c.closer = rdb.Close
	return c, nil
}

// Entry identifies a cached result. Results depend on the document bytes,
// the extraction family chosen from the file name and the rules, so each is
// part of the key.
type Entry struct {
	ContentHash  string
	RulesVersion string
	Family       string
}

// Key builds the Redis key for e
func (e Entry) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, e.RulesVersion, e.Family, e.ContentHash)
}

// Get returns the cached result, or nil on a miss
func (c *ResultCache) Get(ctx context.Context, e Entry) (*types.AnalysisResult, error) {
	data, err := c.client.Get(ctx, e.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}

// Set stores result for the TTL
func (c *ResultCache) Set(ctx context.Context, e Entry, result *types.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("refusing to cache a nil result")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, e.Key(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// Delete removes a cached result
func (c *ResultCache) Delete(ctx context.Context, e Entry) error {
	return c.client.Del(ctx, e.Key()).Err()
}

// TTL returns the expiry applied to new entries
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Close releases the client when the cache opened it
func (c *ResultCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
