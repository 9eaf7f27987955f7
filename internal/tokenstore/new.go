// Package tokenstore provides the persistence backends for the client session.
package tokenstore

import (
	"context"
	"fmt"
	"io"

	"orgsite-client/internal/config"
	"orgsite-client/internal/domain"
)

var (
	_ domain.TokenStore = (*Memory)(nil)
	_ domain.TokenStore = (*File)(nil)
	_ domain.TokenStore = (*Redis)(nil)
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New selects the backend named by cfg.TokenStore. The returned closer
// releases any connection the backend holds.
func New(ctx context.Context, cfg *config.Config) (domain.TokenStore, io.Closer, error) {
	switch cfg.TokenStore {
	case config.StoreMemory:
		return NewMemory(), nopCloser{}, nil
	case config.StoreFile, "":
		return NewFile(cfg.TokenFile), nopCloser{}, nil
	case config.StoreRedis:
		client, err := config.NewRedisConnection(ctx, cfg.RedisAddr, cfg.RedisPass)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(client, cfg.Origin()), client, nil
	default:
		return nil, nil, fmt.Errorf("tokenstore: unsupported backend %q", cfg.TokenStore)
	}
}
