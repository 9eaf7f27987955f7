package dashboard

import (
	"context"
	"strings"

	"orgsite-client/internal/domain"
)

// Member is the member dashboard.
type Member struct {
	guard Guard
	user  *domain.UserProfile
}

func NewMember(guard Guard) *Member {
	return &Member{guard: guard}
}

// Init guards the page and reads the stored profile.
func (m *Member) Init(ctx context.Context) error {
	if !m.guard.RequireAuth(ctx, "member") {
		return domain.ErrAuthRequired
	}
	m.user = m.guard.CurrentUser(ctx)
	return nil
}

// User is the profile read by Init.
func (m *Member) User() *domain.UserProfile {
	return m.user
}

// DisplayName is the profile name, or the local part of the email.
func (m *Member) DisplayName() string {
	if m.user == nil {
		return ""
	}
	if m.user.Name != "" {
		return m.user.Name
	}
	local, _, _ := strings.Cut(m.user.Email, "@")
	return local
}

func (m *Member) Logout(ctx context.Context) {
	m.guard.Logout(ctx)
}
