// Package notify holds the transient notification (toast) state.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"orgsite-client/internal/observability"
)

// DefaultDuration is how long a notification stays up unless told otherwise.
const DefaultDuration = 3 * time.Second

// Severity of a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

func (s Severity) normalize() Severity {
	switch s {
	case Success, Error, Warning, Info:
		return s
	}
	return Info
}

// Notification is one visible toast.
type Notification struct {
	ID       string
	Message  string
	Severity Severity
	// Duration of 0 means the notification stays until closed.
	Duration  time.Duration
	CreatedAt time.Time
}

// Notifier is what flows need to tell the user something.
type Notifier interface {
	Show(message string, severity Severity) string
}

// Timer is the subset of *time.Timer the center needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Sink receives every notification as it is shown.
type Sink func(Notification)

// Option configures a Center.
type Option func(*Center)

// WithAfterFunc replaces the auto-dismiss timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Center) { c.afterFunc = fn }
}

// WithSink registers a renderer.
func WithSink(s Sink) Option {
	return func(c *Center) { c.sink = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

// Center stacks notifications and dismisses them after their duration.
type Center struct {
	mu        sync.Mutex
	items     []Notification
	timers    map[string]Timer
	afterFunc AfterFunc
	sink      Sink
	now       func() time.Time
}

// NewCenter creates an empty notification center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		timers: make(map[string]Timer),
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show displays message for DefaultDuration and returns its id.
func (c *Center) Show(message string, severity Severity) string {
	return c.ShowFor(message, severity, DefaultDuration)
}

// ShowFor displays message for d. A zero or negative d never auto-dismisses.
func (c *Center) ShowFor(message string, severity Severity, d time.Duration) string {
	if d < 0 {
		d = 0
	}
	n := Notification{
		ID:        "toast-" + uuid.NewString(),
		Message:   message,
		Severity:  severity.normalize(),
		Duration:  d,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()

	if d > 0 {
		id := n.ID
		timer := c.afterFunc(d, func() { c.Close(id) })
		c.mu.Lock()
		if c.indexOf(id) >= 0 {
			c.timers[id] = timer
		}
		c.mu.Unlock()
	}

	observability.NotificationsShownTotal.WithLabelValues(string(n.Severity)).Inc()
	observability.Debug("notification shown",
		slog.String("id", n.ID),
		slog.String("severity", string(n.Severity)),
		slog.String("message", n.Message),
	)

	if c.sink != nil {
		c.sink(n)
	}
	return n.ID
}

func (c *Center) Success(message string) string { return c.Show(message, Success) }
func (c *Center) Error(message string) string   { return c.Show(message, Error) }
func (c *Center) Warning(message string) string { return c.Show(message, Warning) }
func (c *Center) Info(message string) string    { return c.Show(message, Info) }

// Close dismisses a notification. Unknown ids are ignored.
func (c *Center) Close(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	return true
}

// CloseAll dismisses everything.
func (c *Center) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

// Active returns the visible notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

func (c *Center) indexOf(id string) int {
	for i, n := range c.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}
