package memory

import (
	"context"
	"maps"
	"strconv"
	"sync"

	"orgsite-client/internal/domain"
	"orgsite-client/internal/observability"
)

// Collection is an ordered set of records keyed by an auto-increment id.
type Collection struct {
	name string

	mu      sync.RWMutex
	nextID  int64
	order   []int64
	records map[int64]domain.Record
}

func NewCollection(name string) *Collection {
	return &Collection{
		name:    name,
		nextID:  1,
		records: make(map[int64]domain.Record),
	}
}

func (c *Collection) Name() string {
	return c.name
}

// List returns copies of all records in insertion order.
func (c *Collection) List(_ context.Context) []domain.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, maps.Clone(c.records[id]))
	}
	return out
}

func (c *Collection) Get(_ context.Context, id string) (domain.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(rec), nil
}

// Create stores fields under a fresh id. A client supplied id is ignored.
func (c *Collection) Create(_ context.Context, fields domain.Record) domain.Record {
	c.mu.Lock()
	id := c.nextID
	c.nextID++

	rec := maps.Clone(fields)
	if rec == nil {
		rec = domain.Record{}
	}
	rec["id"] = id
	c.records[id] = rec
	c.order = append(c.order, id)
	n := len(c.order)
	c.mu.Unlock()

	observability.MockRecordsStored.WithLabelValues(c.name).Set(float64(n))
	return maps.Clone(rec)
}

// Update merges fields into the record and returns the full result. The id
// cannot be changed.
func (c *Collection) Update(_ context.Context, id string, fields domain.Record) (domain.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		if k != "id" {
			rec[k] = v
		}
	}
	return maps.Clone(rec), nil
}

func (c *Collection) Delete(_ context.Context, id string) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if _, ok := c.records[key]; !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	delete(c.records, key)
	for i, v := range c.order {
		if v == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	n := len(c.order)
	c.mu.Unlock()

	observability.MockRecordsStored.WithLabelValues(c.name).Set(float64(n))
	return nil
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Ids that are not positive integers can never match a record.
func parseID(id string) (int64, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil || key <= 0 {
		return 0, ErrNotFound
	}
	return key, nil
}
