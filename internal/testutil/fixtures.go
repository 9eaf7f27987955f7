package testutil

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"

	"orgsite-client/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique numeric ID for test fixtures
func nextID() int64 {
	return idCounter.Add(1)
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// RecordOptions allows customizing record fixture creation
type RecordOptions struct {
	ID     any
	Fields map[string]any
}

// NewTestRecord creates a record with a numeric id and a title.
// The id is a float64, the way encoding/json decodes numbers.
func NewTestRecord(opts ...func(*RecordOptions)) domain.Record {
	n := nextID()
	o := &RecordOptions{
		ID: float64(n),
		Fields: map[string]any{
			"title": fmt.Sprintf("Test Record %d", n),
		},
	}

	for _, opt := range opts {
		opt(o)
	}

	rec := domain.Record{}
	if o.ID != nil {
		rec["id"] = o.ID
	}
	for k, v := range o.Fields {
		rec[k] = v
	}
	return rec
}

// NewTestRecords creates n records with default fields
func NewTestRecords(n int) []domain.Record {
	out := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewTestRecord())
	}
	return out
}

// Record option functions

// WithRecordID sets the record id (any JSON-compatible value)
func WithRecordID(id any) func(*RecordOptions) {
	return func(o *RecordOptions) {
		o.ID = id
	}
}

// WithField sets a single field
func WithField(key string, value any) func(*RecordOptions) {
	return func(o *RecordOptions) {
		o.Fields[key] = value
	}
}

// WithoutID drops the id field entirely
func WithoutID() func(*RecordOptions) {
	return func(o *RecordOptions) {
		o.ID = nil
	}
}

// ProfileOptions allows customizing profile fixture creation
type ProfileOptions struct {
	Email     string
	Name      string
	LoginTime time.Time
}

// NewTestProfile creates a user profile with sensible defaults
func NewTestProfile(opts ...func(*ProfileOptions)) *domain.UserProfile {
	o := &ProfileOptions{
		Email:     fmt.Sprintf("member%d@example.com", nextID()),
		LoginTime: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.UserProfile{
		Email:     o.Email,
		Name:      o.Name,
		LoginTime: o.LoginTime,
	}
}

// WithProfileEmail sets the email
func WithProfileEmail(email string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.Email = email
	}
}

// WithProfileName sets the display name
func WithProfileName(name string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.Name = name
	}
}
