// Package dialog tracks modal dialogs and the blocking confirm/alert prompts.
package dialog

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"

	"orgsite-client/internal/observability"
)

// Button actions used by the built-in prompts.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
	ActionOK      = "ok"
	// ActionDismiss is delivered when a prompt is closed without a button.
	ActionDismiss = ""
)

// Button is a footer action.
type Button struct {
	Text   string
	Action string
}

// Options describe a dialog when it is registered.
type Options struct {
	Title       string
	Content     string
	Buttons     []Button
	CloseButton bool
}

func defaultOptions() Options {
	return Options{Title: "Modal", CloseButton: true}
}

// Dialog is a snapshot of a registered dialog.
type Dialog struct {
	ID      string
	Options Options
	// Fields pre-fill the dialog's form, keyed by input name.
	Fields map[string]any
	Open   bool
	// Prompt is true for confirm/alert dialogs.
	Prompt bool
}

type entry struct {
	opts   Options
	fields map[string]any
	open   bool
	prompt bool
	result chan string
}

// OpenHook observes every dialog that opens.
type OpenHook func(Dialog)

// Option configures a Manager.
type Option func(*Manager)

// WithOpenHook lets a front end render dialogs as they open. The hook runs
// synchronously and may call Resolve.
func WithOpenHook(h OpenHook) Option {
	return func(m *Manager) { m.onOpen = h }
}

// Manager owns dialog state. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	dialogs map[string]*entry
	stack   []string // open dialogs, oldest first
	onOpen  OpenHook
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{dialogs: make(map[string]*entry)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a dialog. It is a no-op when id already exists.
func (m *Manager) Register(id string, opts Options) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register(id, opts, false)
}

func (m *Manager) register(id string, opts Options, prompt bool) bool {
	if _, ok := m.dialogs[id]; ok {
		return false
	}
	e := &entry{opts: opts, fields: map[string]any{}, prompt: prompt}
	if prompt {
		e.result = make(chan string, 1)
	}
	m.dialogs[id] = e
	return true
}

// Open shows a dialog, registering it with defaults if needed. Non-empty
// fields are merged into the form; a "content" field replaces the body.
func (m *Manager) Open(id string, fields map[string]any) {
	m.mu.Lock()
	if _, ok := m.dialogs[id]; !ok {
		m.register(id, defaultOptions(), false)
	}
	e := m.dialogs[id]
	for k, v := range fields {
		if k == "content" {
			if s, ok := v.(string); ok && s != "" {
				e.opts.Content = s
			}
		}
		e.fields[k] = v
	}
	if !e.open {
		e.open = true
		m.stack = append(m.stack, id)
	}
	snap := snapshot(id, e)
	hook := m.onOpen
	m.mu.Unlock()

	observability.Debug("dialog opened", slog.String("id", id))
	if hook != nil {
		hook(snap)
	}
}

// Close hides a dialog. Closing a prompt resolves it with ActionDismiss.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.close(id, ActionDismiss)
}

func (m *Manager) close(id, action string) bool {
	e, ok := m.dialogs[id]
	if !ok || !e.open {
		return false
	}
	e.open = false
	for i, open := range m.stack {
		if open == id {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			break
		}
	}
	if e.prompt {
		delete(m.dialogs, id)
		e.result <- action
	}
	return true
}

// CloseAll hides every open dialog.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range append([]string(nil), m.stack...) {
		m.close(id, ActionDismiss)
	}
}

// HandleKey applies global shortcuts. Escape closes all dialogs.
func (m *Manager) HandleKey(key string) bool {
	if key != "Escape" {
		return false
	}
	m.CloseAll()
	return true
}

// Resolve presses the button with action on an open dialog.
func (m *Manager) Resolve(id, action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.close(id, action)
}

// IsOpen reports whether id is visible.
func (m *Manager) IsOpen(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.dialogs[id]
	return ok && e.open
}

// AnyOpen reports whether some dialog is visible.
func (m *Manager) AnyOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack) > 0
}

// OpenIDs lists visible dialogs in the order they were opened.
func (m *Manager) OpenIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.stack...)
}

// Get returns a snapshot of a registered dialog.
func (m *Manager) Get(id string) (Dialog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.dialogs[id]
	if !ok {
		return Dialog{}, false
	}
	return snapshot(id, e), true
}

// Confirm asks a yes/no question and blocks until it is answered. Closing the
// dialog any other way counts as "no".
func (m *Manager) Confirm(ctx context.Context, title, message string) (bool, error) {
	action, err := m.prompt(ctx, "confirm-modal-", Options{
		Title:   title,
		Content: message,
		Buttons: []Button{
			{Text: "Cancel", Action: ActionCancel},
			{Text: "Confirm", Action: ActionConfirm},
		},
		CloseButton: true,
	})
	if err != nil {
		return false, err
	}
	return action == ActionConfirm, nil
}

// Alert shows a message and blocks until it is acknowledged or closed.
func (m *Manager) Alert(ctx context.Context, title, message string) error {
	_, err := m.prompt(ctx, "alert-modal-", Options{
		Title:       title,
		Content:     message,
		Buttons:     []Button{{Text: "OK", Action: ActionOK}},
		CloseButton: true,
	})
	return err
}

func (m *Manager) prompt(ctx context.Context, prefix string, opts Options) (string, error) {
	id := prefix + uuid.NewString()

	m.mu.Lock()
	m.register(id, opts, true)
	result := m.dialogs[id].result
	m.mu.Unlock()

	m.Open(id, nil)

	select {
	case action := <-result:
		return action, nil
	case <-ctx.Done():
		m.Close(id)
		return ActionDismiss, ctx.Err()
	}
}

func snapshot(id string, e *entry) Dialog {
	opts := e.opts
	opts.Buttons = append([]Button(nil), e.opts.Buttons...)
	return Dialog{
		ID:      id,
		Options: opts,
		Fields:  maps.Clone(e.fields),
		Open:    e.open,
		Prompt:  e.prompt,
	}
}
