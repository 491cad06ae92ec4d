package auth

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "foodgram:revoked:"

// RedisRevoker shares revocations between server instances through Redis keys
// that expire together with the token.
type RedisRevoker struct {
	rdb *goredis.Client
}

// NewRedisRevoker connects to addr and verifies it with PING.
func NewRedisRevoker(ctx context.Context, addr string) (*RedisRevoker, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRevoker{rdb: rdb}, nil
}

// Revoke stores tokenID with a TTL.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

// Revoked reports whether the key is still present.
func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the connection pool.
func (r *RedisRevoker) Close() error {
	return r.rdb.Close()
}
