package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"orgsite-client/internal/domain"
)

// Redis shares one session between processes. Keys are namespaced by the
// API origin and carry no TTL; expiry is only learned from a 401.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed token store for origin.
func NewRedis(client *redis.Client, origin string) *Redis {
	return &Redis{
		client: client,
		prefix: "orgsite:" + origin + ":",
	}
}

func (r *Redis) key(name string) string {
	return r.prefix + name
}

func (r *Redis) Token(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.key(domain.TokenKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: failed to read token: %w", err)
	}
	return val, nil
}

func (r *Redis) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := r.client.Set(ctx, r.key(domain.TokenKey), token, 0).Err(); err != nil {
		return fmt.Errorf("tokenstore: failed to store token: %w", err)
	}
	return nil
}

func (r *Redis) User(ctx context.Context) (*domain.UserProfile, error) {
	val, err := r.client.Get(ctx, r.key(domain.UserKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: failed to read user: %w", err)
	}

	var u domain.UserProfile
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		return nil, fmt.Errorf("tokenstore: failed to unmarshal user: %w", err)
	}
	return &u, nil
}

func (r *Redis) SetUser(ctx context.Context, user *domain.UserProfile) error {
	if user == nil {
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to marshal user: %w", err)
	}

	if err := r.client.Set(ctx, r.key(domain.UserKey), data, 0).Err(); err != nil {
		return fmt.Errorf("tokenstore: failed to store user: %w", err)
	}
	return nil
}

// Clear deletes both keys in a single command.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(domain.TokenKey), r.key(domain.UserKey)).Err(); err != nil {
		return fmt.Errorf("tokenstore: failed to clear session: %w", err)
	}
	return nil
}
