package domain

import (
	"context"
	"errors"
	"time"
)

// Storage keys for the durable session entries.
const (
	TokenKey = "authToken"
	UserKey  = "currentUser"
)

// ErrAuthRequired is returned when an operation needs a session and none is stored.
var ErrAuthRequired = errors.New("authentication required")

// UserProfile is the minimal profile kept alongside the token after login.
type UserProfile struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	LoginTime time.Time `json:"loginTime"`
}

// Session is the client's belief that it is authenticated.
// A non-empty Token means authenticated; expiry is only discovered through a 401.
type Session struct {
	Token string
	User  *UserProfile
}

// Active reports whether the session holds a token.
func (s Session) Active() bool {
	return s.Token != ""
}

// TokenStore persists the auth token and user profile.
// Absent values are reported as "" / nil with a nil error.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	User(ctx context.Context) (*UserProfile, error)
	SetUser(ctx context.Context, user *UserProfile) error
	// Clear removes the token and the profile together.
	Clear(ctx context.Context) error
}

// LoadSession reads both entries from store.
func LoadSession(ctx context.Context, store TokenStore) (Session, error) {
	token, err := store.Token(ctx)
	if err != nil {
		return Session{}, err
	}
	user, err := store.User(ctx)
	if err != nil {
		return Session{Token: token}, err
	}
	return Session{Token: token, User: user}, nil
}
