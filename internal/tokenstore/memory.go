package tokenstore

import (
	"context"
	"sync"

	"orgsite-client/internal/domain"
)

// Memory is a process-local token store.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  *domain.UserProfile
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) SetToken(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) User(_ context.Context) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, nil
	}
	u := *m.user
	return &u, nil
}

func (m *Memory) SetUser(_ context.Context, user *domain.UserProfile) error {
	if user == nil {
		return nil
	}
	u := *user
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	return nil
}
