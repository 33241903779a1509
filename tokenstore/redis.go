package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis persists the token pair under two keys. A non-zero TTL bounds how
// long a stale pair can outlive the process that wrote it.
type Redis struct {
	client     *redis.Client
	accessKey  string
	refreshKey string
	ttl        time.Duration
}

// NewRedis returns a Redis-backed store writing under accessKey and
// refreshKey with an optional expiry.
func NewRedis(client *redis.Client, accessKey, refreshKey string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("tokenstore: redis client required")
	}
	if accessKey == "" || refreshKey == "" || accessKey == refreshKey {
		return nil, fmt.Errorf("tokenstore: access and refresh keys must be distinct and non-empty")
	}
	return &Redis{client: client, accessKey: accessKey, refreshKey: refreshKey, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context) (TokenPair, bool, error) {
	values, err := r.client.MGet(ctx, r.accessKey, r.refreshKey).Result()
	if err != nil {
		return TokenPair{}, false, fmt.Errorf("tokenstore: redis mget: %w", err)
	}

	var pair TokenPair
	if s, ok := values[0].(string); ok {
		pair.AccessToken = s
	}
	if s, ok := values[1].(string); ok {
		pair.RefreshToken = s
	}
	return pair, pair.AccessToken != "", nil
}

func (r *Redis) Set(ctx context.Context, pair TokenPair) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.accessKey, pair.AccessToken, r.ttl)
	if pair.RefreshToken != "" {
		pipe.Set(ctx, r.refreshKey, pair.RefreshToken, r.ttl)
	} else if r.ttl > 0 {
		// Access-only rotation keeps the old refresh token but renews its expiry.
		pipe.Expire(ctx, r.refreshKey, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("tokenstore: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.accessKey, r.refreshKey).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis del: %w", err)
	}
	return nil
}
