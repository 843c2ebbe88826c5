package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const suppressedTokenPrefix = "push:token:suppressed:"

// RedisRepository tracks device tokens a provider reported as permanently
// invalid, scoped per integration so one customer's bad token does not
// affect another's.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Ping checks connectivity.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IsTokenSuppressed returns true if the token is currently marked as invalid.
func (r *RedisRepository) IsTokenSuppressed(ctx context.Context, integrationID, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, suppressionKey(integrationID, token)).Result()
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// SuppressToken stores a token in Redis with a TTL; ttl <= 0 uses the default.
func (r *RedisRepository) SuppressToken(ctx context.Context, integrationID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.SetEX(ctx, suppressionKey(integrationID, token), "1", ttl).Err()
}

func suppressionKey(integrationID, token string) string {
	return suppressedTokenPrefix + integrationID + ":" + token
}
