package memory

import (
	"context"
	"errors"
	"fmt"

	"orgsite-client/internal/domain"
)

// Store groups the accounts and one collection per resource kind.
type Store struct {
	Accounts    *Accounts
	collections map[domain.ResourceKind]*Collection
}

// NewStore creates empty collections for every kind. bcryptCost 0 means the
// bcrypt default.
func NewStore(bcryptCost int) *Store {
	s := &Store{collections: make(map[domain.ResourceKind]*Collection, len(domain.AllKinds))}
	for _, kind := range domain.AllKinds {
		s.collections[kind] = NewCollection(string(kind))
	}
	s.Accounts = NewAccounts(s.collections[domain.Users], bcryptCost)
	return s
}

func (s *Store) Collection(kind domain.ResourceKind) (*Collection, error) {
	c, ok := s.collections[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownResource, kind)
	}
	return c, nil
}

// Counts reports the number of records per collection.
func (s *Store) Counts() map[string]int {
	out := make(map[string]int, len(s.collections))
	for kind, c := range s.collections {
		out[string(kind)] = c.Len()
	}
	return out
}

// EnsureAdmin registers the admin account unless it already exists.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.Accounts.Register(ctx, Registration{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     "admin",
	})
	if err != nil && !errors.Is(err, ErrEmailExists) {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}
