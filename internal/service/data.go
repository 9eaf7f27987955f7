package service

import (
	"context"
	"fmt"
	"time"

	"orgsite-client/internal/api"
	"orgsite-client/internal/domain"
)

// DataOption configures Data.
type DataOption func(*dataConfig)

type dataConfig struct {
	ttl time.Duration
	now func() time.Time
}

// WithCacheTTL sets how long loaded collections stay fresh.
func WithCacheTTL(d time.Duration) DataOption {
	return func(c *dataConfig) { c.ttl = d }
}

// WithCacheClock overrides time.Now for freshness checks.
func WithCacheClock(now func() time.Time) DataOption {
	return func(c *dataConfig) { c.now = now }
}

// Data groups the caches for every cached collection.
type Data struct {
	caches map[domain.ResourceKind]*ResourceCache
}

// NewData builds one cache per cached collection on top of client.
func NewData(client *api.Client, session SessionChecker, opts ...DataOption) *Data {
	cfg := &dataConfig{ttl: DefaultCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	d := &Data{caches: make(map[domain.ResourceKind]*ResourceCache, len(domain.CachedKinds))}
	for _, kind := range domain.CachedKinds {
		d.caches[kind] = NewResourceCache(client.Resource(kind), session, cfg.ttl, cfg.now)
	}
	return d
}

// Cache returns the cache for kind.
func (d *Data) Cache(kind domain.ResourceKind) (*ResourceCache, error) {
	c, ok := d.caches[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not cached", domain.ErrUnknownResource, kind)
	}
	return c, nil
}

func (d *Data) Programs() *ResourceCache { return d.caches[domain.Programs] }
func (d *Data) Services() *ResourceCache { return d.caches[domain.Services] }
func (d *Data) Events() *ResourceCache   { return d.caches[domain.Events] }
func (d *Data) Blog() *ResourceCache     { return d.caches[domain.Blog] }

// ClearCache drops every cached list and its timestamp.
func (d *Data) ClearCache() {
	for _, c := range d.caches {
		c.clear()
	}
}

// ClearOnLogout is an AuthService logout hook.
func (d *Data) ClearOnLogout(context.Context) {
	d.ClearCache()
}
