package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bazaar/infrastructure"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RefreshTokenStore is the revocable token -> userID index. It lives in a
// shared store so revocation holds across server instances and restarts.
type RefreshTokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID) error
	UserID(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func refreshKey(token string) string {
	return "refresh:" + token
}

func (s *RedisStorage) Save(ctx context.Context, token string, userID uuid.UUID) error {
	if err := s.client.Set(ctx, refreshKey(token), userID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *RedisStorage) UserID(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := s.client.Get(ctx, refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, infrastructure.ErrInvalidRefreshToken
		}
		return uuid.Nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, infrastructure.ErrInvalidRefreshToken
	}
	return userID, nil
}

func (s *RedisStorage) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, refreshKey(token)).Err()
}
