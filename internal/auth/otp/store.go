package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bazaar/infrastructure"

	"github.com/go-redis/redis/v8"
)

// Store keeps outstanding one-time codes. Expiry is enforced by the store
// itself, so an expired code is indistinguishable from one that never
// existed. Lookup is by (email, code) only; the purpose check is the
// caller's responsibility.
type Store interface {
	Save(ctx context.Context, code *Code) error
	Find(ctx context.Context, email, code string) (*Code, error)
	Delete(ctx context.Context, email, code string) error
}

type storedCode struct {
	Purpose   Purpose   `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func otpKey(email, code string) string {
	return fmt.Sprintf("otp:%s:%s", email, code)
}

func (s *RedisStore) Save(ctx context.Context, code *Code) error {
	payload, err := json.Marshal(storedCode{Purpose: code.Purpose, CreatedAt: code.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to encode otp: %w", err)
	}
	if err := s.client.Set(ctx, otpKey(code.Email, code.Code), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, email, code string) (*Code, error) {
	payload, err := s.client.Get(ctx, otpKey(email, code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, infrastructure.ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to look up otp: %w", err)
	}

	var stored storedCode
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode otp: %w", err)
	}
	return &Code{Email: email, Code: code, Purpose: stored.Purpose, CreatedAt: stored.CreatedAt}, nil
}

func (s *RedisStore) Delete(ctx context.Context, email, code string) error {
	return s.client.Del(ctx, otpKey(email, code)).Err()
}
