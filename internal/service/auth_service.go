package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"orgsite-client/internal/api"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/navigation"
	"orgsite-client/internal/notify"
	"orgsite-client/internal/observability"
)

const (
	// DefaultRedirectDelay leaves time to read the warning before leaving the page.
	DefaultRedirectDelay = 1500 * time.Millisecond

	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
	MsgRegistered         = "Registration successful! Please login to continue."
	MsgPleaseLogIn        = "Please log in to continue"
)

// AuthAPI is the part of the HTTP client the auth flow needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) api.Result
	Register(ctx context.Context, name, phone, email, password string) api.Result
}

// AuthResult is the outcome of login and registration.
type AuthResult struct {
	Success   bool
	Token     string
	TokenType string
	Message   string
	Error     string
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

func WithNotifier(n notify.Notifier) AuthOption {
	return func(s *AuthService) { s.notifier = n }
}

func WithNavigator(nav navigation.Navigator) AuthOption {
	return func(s *AuthService) { s.nav = nav }
}

// WithScheduler supplies the scheduler used for the delayed login redirect.
func WithScheduler(sch *navigation.Scheduler) AuthOption {
	return func(s *AuthService) { s.scheduler = sch }
}

func WithLoginPath(path string) AuthOption {
	return func(s *AuthService) {
		if path != "" {
			s.loginPath = path
		}
	}
}

func WithRedirectDelay(d time.Duration) AuthOption {
	return func(s *AuthService) { s.redirectDelay = d }
}

func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// AuthService owns the client session: login, registration, logout and the
// page guard.
type AuthService struct {
	client        AuthAPI
	store         domain.TokenStore
	notifier      notify.Notifier
	nav           navigation.Navigator
	scheduler     *navigation.Scheduler
	loginPath     string
	redirectDelay time.Duration
	now           func() time.Time

	mu    sync.Mutex
	hooks []func(context.Context)
}

func NewAuthService(client AuthAPI, store domain.TokenStore, opts ...AuthOption) *AuthService {
	s := &AuthService{
		client:        client,
		store:         store,
		nav:           navigation.Nop{},
		loginPath:     api.DefaultLoginPath,
		redirectDelay: DefaultRedirectDelay,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = navigation.NewScheduler(s.nav)
	}
	return s
}

// OnLogout registers a hook run after the session is cleared.
func (s *AuthService) OnLogout(hook func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Login exchanges credentials for a token. Only the token and the email
// typed by the user are kept.
func (s *AuthService) Login(ctx context.Context, email, password string) AuthResult {
	logger := observability.FromContext(ctx)

	res := s.client.Login(ctx, email, password)
	if !res.Success {
		return AuthResult{Error: orDefault(res.Error, MsgLoginFailed)}
	}

	var tok api.TokenResponse
	if err := res.Decode(&tok); err != nil || tok.AccessToken == "" {
		logger.Warn("login response carried no access token")
		return AuthResult{Error: MsgLoginFailed}
	}

	if err := s.store.SetToken(ctx, tok.AccessToken); err != nil {
		logger.Error("failed to store token", slog.String("error", err.Error()))
		return AuthResult{Error: MsgLoginFailed + ": " + err.Error()}
	}

	profile := &domain.UserProfile{Email: email, LoginTime: s.now().UTC()}
	if err := s.store.SetUser(ctx, profile); err != nil {
		logger.Error("failed to store user profile", slog.String("error", err.Error()))
	}

	logger.Info("logged in", slog.String("email", email))
	return AuthResult{Success: true, Token: tok.AccessToken, TokenType: tok.TokenType}
}

// Register creates an account. The user still has to log in afterwards.
func (s *AuthService) Register(ctx context.Context, name, phone, email, password string) AuthResult {
	res := s.client.Register(ctx, name, phone, email, password)
	if !res.Success {
		return AuthResult{Error: orDefault(res.Error, MsgRegistrationFailed)}
	}
	return AuthResult{Success: true, Message: MsgRegistered}
}

// Logout clears the session, runs the logout hooks and goes to the login page.
func (s *AuthService) Logout(ctx context.Context) {
	logger := observability.FromContext(ctx)
	if err := s.store.Clear(ctx); err != nil {
		logger.Error("failed to clear session", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	hooks := append(([]func(context.Context))(nil), s.hooks...)
	s.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}

	s.scheduler.Cancel()
	s.nav.Navigate(ctx, s.loginPath)
}

// IsLoggedIn reports whether a token is stored. Expiry is only detected by a 401.
func (s *AuthService) IsLoggedIn(ctx context.Context) bool {
	token, err := s.store.Token(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("failed to read token", slog.String("error", err.Error()))
		return false
	}
	return token != ""
}

// CurrentUser returns the stored profile, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) *domain.UserProfile {
	user, err := s.store.User(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("failed to read user profile", slog.String("error", err.Error()))
		return nil
	}
	return user
}

// AuthHeader returns "Bearer <token>" or "" when logged out.
func (s *AuthService) AuthHeader(ctx context.Context) string {
	token, err := s.store.Token(ctx)
	if err != nil || token == "" {
		return ""
	}
	return "Bearer " + token
}

// RequireAuth guards a page. Without a session it warns the user, schedules
// the login redirect and returns false right away. role is not checked
// against anything: any logged-in user passes every guard.
func (s *AuthService) RequireAuth(ctx context.Context, role string) bool {
	if !s.IsLoggedIn(ctx) {
		if s.notifier != nil {
			s.notifier.Show(MsgPleaseLogIn, notify.Warning)
		}
		s.scheduler.Schedule(ctx, s.loginPath, s.redirectDelay)
		return false
	}

	if role != "" {
		observability.FromContext(ctx).Debug("role requested but not enforced", slog.String("role", role))
	}
	return true
}

// PendingRedirect returns the scheduled login redirect, if any.
func (s *AuthService) PendingRedirect() *navigation.Pending {
	return s.scheduler.Pending()
}

func orDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
