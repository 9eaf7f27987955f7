// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the orgsite client.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"orgsite-client/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStore          = errors.New("mock: store unavailable")
)

// MockTokenStore implements domain.TokenStore for testing
type MockTokenStore struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	TokenFunc    func(ctx context.Context) (string, error)
	SetTokenFunc func(ctx context.Context, token string) error
	UserFunc     func(ctx context.Context) (*domain.UserProfile, error)
	SetUserFunc  func(ctx context.Context, user *domain.UserProfile) error
	ClearFunc    func(ctx context.Context) error

	// In-memory storage for simple tests
	StoredToken string
	StoredUser  *domain.UserProfile
	ClearCalls  int
}

// NewMockTokenStore creates a store that already holds token (may be empty)
func NewMockTokenStore(token string) *MockTokenStore {
	return &MockTokenStore{StoredToken: token}
}

func (m *MockTokenStore) Token(ctx context.Context) (string, error) {
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.StoredToken, nil
}

func (m *MockTokenStore) SetToken(ctx context.Context, token string) error {
	if m.SetTokenFunc != nil {
		return m.SetTokenFunc(ctx, token)
	}
	if token == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoredToken = token
	return nil
}

func (m *MockTokenStore) User(ctx context.Context) (*domain.UserProfile, error) {
	if m.UserFunc != nil {
		return m.UserFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.StoredUser, nil
}

func (m *MockTokenStore) SetUser(ctx context.Context, user *domain.UserProfile) error {
	if m.SetUserFunc != nil {
		return m.SetUserFunc(ctx, user)
	}
	if user == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoredUser = user
	return nil
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoredToken = ""
	m.StoredUser = nil
	return nil
}

// RecordedCall is one request seen by FakeBackend
type RecordedCall struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// FakeBackend is an httptest server with scripted routes that records
// every request. Unscripted routes answer 404 with a detail body.
type FakeBackend struct {
	Server *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []RecordedCall
}

// NewFakeBackend starts a backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{routes: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// Handle scripts method+path with a custom handler
func (f *FakeBackend) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

// RespondJSON scripts method+path to answer status with body encoded as JSON.
// A nil body writes no payload.
func (f *FakeBackend) RespondJSON(method, path string, status int, body any) {
	f.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		if body == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	})
}

// Respond scripts method+path with a raw body
func (f *FakeBackend) Respond(method, path string, status int, body string) {
	f.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

// Calls returns a copy of the recorded requests
func (f *FakeBackend) Calls() []RecordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedCall(nil), f.calls...)
}

// CallCount counts requests matching method and path
func (f *FakeBackend) CallCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// LastCall returns the most recent request
func (f *FakeBackend) LastCall() (RecordedCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return RecordedCall{}, false
	}
	return f.calls[len(f.calls)-1], true
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, RecordedCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Not Found"}`)
		return
	}

	// Handlers may read the body again
	r.Body = io.NopCloser(bytesReader(body))
	h(w, r)
}
