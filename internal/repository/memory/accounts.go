package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"orgsite-client/internal/domain"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt limit
)

// Account is a registered user.
type Account struct {
	ID           string
	Name         string
	Phone        string
	Email        string
	Role         string
	PasswordHash string
}

// Registration is what /register accepts.
type Registration struct {
	Name     string
	Phone    string
	Email    string
	Password string
	Role     string
}

// Accounts keeps users and their issued bearer tokens. Public user profiles
// are mirrored into the users collection so they show up under /user/.
type Accounts struct {
	users *Collection
	cost  int

	mu      sync.RWMutex
	byEmail map[string]*Account
	tokens  map[string]string // token -> email
}

// NewAccounts uses bcrypt.DefaultCost when cost is 0.
func NewAccounts(users *Collection, cost int) *Accounts {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Accounts{
		users:   users,
		cost:    cost,
		byEmail: make(map[string]*Account),
		tokens:  make(map[string]string),
	}
}

func (a *Accounts) Register(ctx context.Context, reg Registration) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if !emailRegex.MatchString(email) || len(email) > 255 {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(reg.Password) < minPasswordLen || len(reg.Password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d to %d characters", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}

	a.mu.RLock()
	_, exists := a.byEmail[email]
	a.mu.RUnlock()
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := reg.Role
	if role == "" {
		role = "member"
	}
	acct := &Account{
		Name:         strings.TrimSpace(reg.Name),
		Phone:        strings.TrimSpace(reg.Phone),
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byEmail[email]; exists {
		return nil, ErrEmailExists
	}
	if a.users != nil {
		acct.ID = a.users.Create(ctx, acct.Profile()).ID()
	}
	a.byEmail[email] = acct
	cp := *acct
	return &cp, nil
}

// Login checks the password and issues a new bearer token.
func (a *Accounts) Login(_ context.Context, email, password string) (string, error) {
	a.mu.RLock()
	acct, ok := a.byEmail[strings.ToLower(strings.TrimSpace(email))]
	a.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.New().String()
	a.mu.Lock()
	a.tokens[token] = acct.Email
	a.mu.Unlock()
	return token, nil
}

// Authenticate resolves a bearer token to its account.
func (a *Accounts) Authenticate(_ context.Context, token string) (*Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	email, ok := a.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	acct, ok := a.byEmail[email]
	if !ok {
		return nil, ErrInvalidToken
	}
	cp := *acct
	return &cp, nil
}

// Revoke forgets a token. Unknown tokens are ignored.
func (a *Accounts) Revoke(_ context.Context, token string) {
	a.mu.Lock()
	delete(a.tokens, token)
	a.mu.Unlock()
}

// Profile is the public view of the account, without the password hash.
func (acct *Account) Profile() domain.Record {
	rec := domain.Record{
		"name":         acct.Name,
		"phone_number": acct.Phone,
		"email":        acct.Email,
		"role":         acct.Role,
	}
	if acct.ID != "" {
		rec["id"] = acct.ID
	}
	return rec
}
