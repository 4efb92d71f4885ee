// Package session supplies the authenticated caller identity. Tokens are
// opaque ids stored in Redis; there is no signing or claims protocol.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nmoreno/go-commerce-api/internal/redisx"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

var ErrNotFound = errors.New("session not found")

type Identity struct {
	UserID string     `json:"user_id"`
	Role   users.Role `json:"role"`
}

func (id Identity) IsAdmin() bool { return id.Role == users.RoleAdmin }

type Store struct {
	Redis *redis.Client
	TTL   time.Duration
}

func (s *Store) Create(ctx context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	raw, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf(redisx.KeySession, token)
	if err := s.Redis.Set(ctx, key, raw, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *Store) Get(ctx context.Context, token string) (*Identity, error) {
	key := fmt.Sprintf(redisx.KeySession, token)
	raw, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &id, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	key := fmt.Sprintf(redisx.KeySession, token)
	return s.Redis.Del(ctx, key).Err()
}
