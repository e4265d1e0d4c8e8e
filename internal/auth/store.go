package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "craftmarket:refresh:"

// RedisRefreshStore keeps the current refresh token per identity in
// Redis, expiring with the token itself. SET overwrites the previous
// value, so issuing a new token revokes the old one.
type RedisRefreshStore struct {
	client *redis.Client
}

func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{client: client}
}

func (s *RedisRefreshStore) Save(ctx context.Context, userID, token string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKeyPrefix+userID, token, ttl).Err()
}

func (s *RedisRefreshStore) Get(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, refreshKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (s *RedisRefreshStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, refreshKeyPrefix+userID).Err()
}
