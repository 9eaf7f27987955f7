package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"orgsite-client/internal/api"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/observability"
)

// DefaultCacheTTL is how long a loaded collection is served without refetching.
const DefaultCacheTTL = 5 * time.Minute

// MsgAuthRequired is returned for session-only collections when logged out.
const MsgAuthRequired = "Authentication required"

// ResourceAPI is one collection's endpoint group.
type ResourceAPI interface {
	Kind() domain.ResourceKind
	List(ctx context.Context) api.Result
	Create(ctx context.Context, data any) api.Result
	Update(ctx context.Context, id string, data any) api.Result
	Delete(ctx context.Context, id string) api.Result
}

// SessionChecker reports whether the client holds a session.
type SessionChecker interface {
	IsLoggedIn(ctx context.Context) bool
}

// ResourceCache mirrors one collection for a bounded time. The lock is
// never held across a network call, so concurrent writers race and the last
// one wins.
type ResourceCache struct {
	kind    domain.ResourceKind
	api     ResourceAPI
	session SessionChecker
	ttl     time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	items     []domain.Record
	fetchedAt time.Time
}

// NewResourceCache creates an empty cache in front of res.
func NewResourceCache(res ResourceAPI, session SessionChecker, ttl time.Duration, now func() time.Time) *ResourceCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceCache{
		kind:    res.Kind(),
		api:     res,
		session: session,
		ttl:     ttl,
		now:     now,
	}
}

// Kind returns the cached collection.
func (c *ResourceCache) Kind() domain.ResourceKind {
	return c.kind
}

// Load returns the cached list when it is fresh and non-empty, otherwise it
// fetches and replaces it. Failed fetches leave the cache untouched.
func (c *ResourceCache) Load(ctx context.Context, force bool) api.Result {
	ctx = observability.WithResource(ctx, string(c.kind))
	resource := string(c.kind)

	if c.kind.RequiresSession() && (c.session == nil || !c.session.IsLoggedIn(ctx)) {
		observability.CacheLookupsTotal.WithLabelValues(resource, "denied").Inc()
		return api.Fail(MsgAuthRequired, 0)
	}

	if !force {
		if data, ok := c.cached(); ok {
			observability.CacheLookupsTotal.WithLabelValues(resource, "hit").Inc()
			return api.Result{Success: true, Data: data, Cached: true}
		}
		observability.CacheLookupsTotal.WithLabelValues(resource, "miss").Inc()
	} else {
		observability.CacheLookupsTotal.WithLabelValues(resource, "refresh").Inc()
	}

	res := c.api.List(ctx)
	if !res.Success {
		return res
	}

	items := res.Records()
	c.mu.Lock()
	c.items = items
	c.fetchedAt = c.now()
	c.mu.Unlock()

	observability.FromContext(ctx).Debug("cache refreshed", slog.Int("items", len(items)))
	return res
}

func (c *ResourceCache) cached() (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.items) == 0 || !c.freshLocked() {
		return nil, false
	}
	data, err := json.Marshal(c.items)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Create posts data and appends the server's record.
func (c *ResourceCache) Create(ctx context.Context, data any) api.Result {
	ctx = observability.WithResource(ctx, string(c.kind))
	res := c.api.Create(ctx, data)
	if !res.Success {
		return res
	}

	rec, err := res.Record()
	if err != nil {
		observability.FromContext(ctx).Warn("create returned no record, cache not updated", slog.String("error", err.Error()))
		return res
	}

	c.mu.Lock()
	c.items = append(c.items, rec)
	c.mu.Unlock()
	return res
}

// Update puts data and replaces the matching record with the server's copy.
func (c *ResourceCache) Update(ctx context.Context, id string, data any) api.Result {
	ctx = observability.WithResource(ctx, string(c.kind))
	id = strings.TrimSpace(id)
	res := c.api.Update(ctx, id, data)
	if !res.Success {
		return res
	}

	rec, err := res.Record()
	if err != nil {
		observability.FromContext(ctx).Warn("update returned no record, cache not updated", slog.String("error", err.Error()))
		return res
	}

	want := domain.NormalizeID(id)
	c.mu.Lock()
	for i, item := range c.items {
		if item.ID() == want {
			c.items[i] = rec
			break
		}
	}
	c.mu.Unlock()
	return res
}

// Delete removes the record on the server and then locally. Unknown ids
// leave the cache unchanged.
func (c *ResourceCache) Delete(ctx context.Context, id string) api.Result {
	ctx = observability.WithResource(ctx, string(c.kind))
	id = strings.TrimSpace(id)
	res := c.api.Delete(ctx, id)
	if !res.Success {
		return res
	}

	want := domain.NormalizeID(id)
	c.mu.Lock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID() != want {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.mu.Unlock()
	return res
}

// Items returns a copy of the cached records in server order.
func (c *ResourceCache) Items() []domain.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Record, len(c.items))
	for i, item := range c.items {
		out[i] = maps.Clone(item)
	}
	return out
}

// Len returns the number of cached records.
func (c *ResourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// ByID finds a cached record. Numeric and string ids compare equal.
func (c *ResourceCache) ByID(id any) (domain.Record, bool) {
	want := domain.NormalizeID(id)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.ID() == want {
			return maps.Clone(item), true
		}
	}
	return nil, false
}

// Fresh reports whether the last fetch is within the TTL.
func (c *ResourceCache) Fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.freshLocked()
}

func (c *ResourceCache) freshLocked() bool {
	if c.fetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.fetchedAt) < c.ttl
}

// LastFetched returns the time of the last successful load.
func (c *ResourceCache) LastFetched() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

func (c *ResourceCache) clear() {
	c.mu.Lock()
	c.items = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
