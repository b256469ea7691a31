package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"scribemarket/api/internal/provider"
)

// TokenStore persists one grant per storage key so a session survives
// restarts. The admin and user namespaces use distinct keys and therefore
// never overwrite each other.
type TokenStore interface {
	Load(ctx context.Context, key string) (provider.Token, bool, error)
	Save(ctx context.Context, key string, token provider.Token) error
	Clear(ctx context.Context, key string) error
}

type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Load(ctx context.Context, key string) (provider.Token, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return provider.Token{}, false, nil
		}
		return provider.Token{}, false, fmt.Errorf("load token %s: %w", key, err)
	}

	var token provider.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return provider.Token{}, false, fmt.Errorf("decode token %s: %w", key, err)
	}
	return token, true, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, key string, token provider.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save token %s: %w", key, err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear token %s: %w", key, err)
	}
	return nil
}
