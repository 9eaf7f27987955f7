package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"orgsite-client/internal/domain"
)

// document is the on-disk layout. Keys mirror the browser storage keys.
type document struct {
	Token string              `json:"authToken,omitempty"`
	User  *domain.UserProfile `json:"currentUser,omitempty"`
}

// File keeps the session in a JSON document so it survives restarts.
// Writes go to a temp file in the same directory and are renamed into place.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a store backed by path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file location.
func (f *File) Path() string {
	return f.path
}

func (f *File) Token(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", err
	}
	return doc.Token, nil
}

func (f *File) SetToken(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	return f.update(func(doc *document) { doc.Token = token })
}

func (f *File) User(_ context.Context) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.User, nil
}

func (f *File) SetUser(_ context.Context, user *domain.UserProfile) error {
	if user == nil {
		return nil
	}
	u := *user
	return f.update(func(doc *document) { doc.User = &u })
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore: failed to remove %s: %w", f.path, err)
	}
	return nil
}

func (f *File) update(apply func(*document)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	apply(&doc)
	return f.write(doc)
}

func (f *File) read() (document, error) {
	var doc document

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("tokenstore: failed to read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("tokenstore: failed to decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *File) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: failed to marshal: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore: failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("tokenstore: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("tokenstore: failed to replace %s: %w", f.path, err)
	}
	return nil
}
