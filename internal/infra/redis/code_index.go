package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"livequiz-service/internal/domain"
)

// CodeIndex keeps join codes in Redis so code uniqueness holds across
// restarts. Reservation is a SETNX; a TTL caps how long an abandoned session
// can squat on a code.
type CodeIndex struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeIndex(client *redis.Client, ttl time.Duration) *CodeIndex {
	return &CodeIndex{client: client, ttl: ttl}
}

func (c *CodeIndex) Reserve(ctx context.Context, code, sessionID string) (bool, error) {
	return c.client.SetNX(ctx, c.key(code), sessionID, c.ttl).Result()
}

func (c *CodeIndex) Resolve(ctx context.Context, code string) (string, error) {
	sessionID, err := c.client.Get(ctx, c.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (c *CodeIndex) Release(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}

func (c *CodeIndex) key(code string) string {
	return "session:code:" + code
}
