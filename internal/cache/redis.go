// Package cache holds the Redis-backed stores.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// TokenDenylist remembers revoked token ids until they would have expired.
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func denylistKey(jti string) string {
	return "denylist:" + jti
}

// Revoke stores jti until expiresAt. It reports false when jti had already
// been revoked, so a token can be consumed at most once. Already expired
// tokens are not stored.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return true, nil
	}
	return d.client.SetNX(ctx, denylistKey(jti), "1", ttl).Result()
}
