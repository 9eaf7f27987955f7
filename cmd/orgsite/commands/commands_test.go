package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgsite-client/internal/config"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/handler"
	"orgsite-client/internal/repository/memory"
	"orgsite-client/internal/service"
	"orgsite-client/internal/testutil"
	"orgsite-client/internal/tokenstore"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type env struct {
	backend *memory.Store
	url     string
	store   *tokenstore.Memory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.NewStore(bcrypt.MinCost)
	require.NoError(t, store.EnsureAdmin(ctx, adminEmail, adminPassword))

	cfg := handler.DefaultRouterConfig()
	cfg.RequestLog = false
	cfg.AuthRate, cfg.APIRate = 0, 0
	router, err := handler.NewRouter(ctx, store, cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{backend: store, url: srv.URL, store: tokenstore.NewMemory()}
}

func (e *env) config() *config.Config {
	return &config.Config{
		APIBaseURL: e.url,
		LoginPath:  config.DefaultLoginPath,
		CacheTTL:   config.DefaultCacheTTL,
		TokenStore: config.StoreMemory,
		LogLevel:   "error",
		LogFormat:  "text",
	}
}

type output struct {
	stdout, stderr string
}

func (e *env) run(t *testing.T, stdin string, args ...string) (output, error) {
	t.Helper()
	cmd := NewRootCommand(WithConfig(e.config()), WithTokenStore(e.store))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return output{stdout: stdout.String(), stderr: stderr.String()}, err
}

func (e *env) login(t *testing.T) {
	t.Helper()
	_, err := e.run(t, "", "login", "-e", adminEmail, "-p", adminPassword)
	require.NoError(t, err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out, err := e.run(t, "", "login", "--email", adminEmail, "--password", adminPassword)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Logged in as "+adminEmail)

	token, _ := e.store.Token(ctx)
	assert.NotEmpty(t, token)

	out, err = e.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, adminEmail)

	out, err = e.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out.stderr, config.DefaultLoginPath)

	token, _ = e.store.Token(ctx)
	assert.Empty(t, token)

	_, err = e.run(t, "", "whoami")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestLogin_PromptsForMissingCredentials(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, adminEmail+"\n"+adminPassword+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out.stderr, "Email: ")
	assert.Contains(t, out.stderr, "Password: ")
	assert.Contains(t, out.stdout, "Logged in as "+adminEmail)
}

func TestPrompter_ReadSecretFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	_, err = w.WriteString("  s3cret \n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var out bytes.Buffer
	p := newPrompter(r, &out)
	assert.Equal(t, -1, p.fd, "a pipe is not a terminal")
	assert.Equal(t, "s3cret", p.readSecret("Password"))
	assert.Equal(t, "Password: ", out.String())
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "login", "-e", adminEmail, "-p", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Invalid Credentials, Please Try Again", err.Error())
	assert.NotContains(t, out.stderr, config.DefaultLoginPath, "a bad password is not a session teardown")

	token, _ := e.store.Token(context.Background())
	assert.Empty(t, token)
}

func TestRegisterThenLogin(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "register", "--name", "Ann Lee", "--phone", "555-0100", "-e", "ann@example.org", "-p", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, service.MsgRegistered)

	token, _ := e.store.Token(context.Background())
	assert.Empty(t, token, "registering does not log in")

	_, err = e.run(t, "", "register", "-e", "ann@example.org", "-p", "secret1")
	assert.EqualError(t, err, "Email already registered")

	_, err = e.run(t, "", "login", "-e", "ann@example.org", "-p", "secret1")
	require.NoError(t, err)
	out, err = e.run(t, "", "dashboard", "member")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Welcome, ann")
}

func TestCRUDFlow(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, err := e.run(t, "", "create", "programs", "name=Youth Leadership", "seats=20", "online=true")
	require.NoError(t, err)
	assert.Contains(t, out.stderr, "Program created successfully")
	assert.Contains(t, out.stdout, `"seats": 20`)

	out, err = e.run(t, "", "update", "program", "1", "seats=25")
	require.NoError(t, err)
	assert.Contains(t, out.stderr, "Program updated successfully")

	out, err = e.run(t, "", "get", "programs", "1")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, `"name": "Youth Leadership"`)
	assert.Contains(t, out.stdout, `"seats": 25`)

	out, err = e.run(t, "", "list", "programs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.stdout), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, `{"id":1,"name":"Youth Leadership","online":true,"seats":25}`, lines[0])

	out, err = e.run(t, "n\n", "delete", "programs", "1")
	assert.ErrorIs(t, err, errNotDeleted)
	assert.Contains(t, out.stderr, "Are you sure you want to delete this item? [y/N]")
	assert.Equal(t, 1, e.backend.Counts()["programs"])

	out, err = e.run(t, "y\n", "delete", "programs", "1")
	require.NoError(t, err)
	assert.Contains(t, out.stderr, "Item deleted")
	assert.Zero(t, e.backend.Counts()["programs"])

	out, err = e.run(t, "", "delete", "programs", "1", "--yes")
	assert.ErrorIs(t, err, errNotDeleted)
	assert.Contains(t, out.stderr, "Failed to delete item")
	assert.NotContains(t, out.stderr, "[y/N]")
}

func TestCreate_Errors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "create", "widgets", "name=x")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)

	_, err = e.run(t, "", "create", "programs", "not-a-field")
	assert.ErrorIs(t, err, service.ErrInvalidField)

	out, err := e.run(t, "", "create", "programs", "name=x")
	require.Error(t, err, "mutations need a session")
	assert.Equal(t, "Unauthorized", err.Error())
	assert.Contains(t, out.stderr, "orgsite login")
}

func TestList_SessionRules(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "list", "services")
	require.NoError(t, err, "services are public")

	_, err = e.run(t, "", "list", "events")
	require.Error(t, err)
	assert.Equal(t, service.MsgAuthRequired, err.Error())

	_, err = e.run(t, "", "dashboard", "news")
	require.Error(t, err)
	assert.Equal(t, service.MsgAuthRequired, err.Error())
}

func TestStaleTokenIsCleared(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SetToken(ctx, "expired-token"))
	require.NoError(t, e.store.SetUser(ctx, &domain.UserProfile{Email: adminEmail}))

	out, err := e.run(t, "", "list", "blog", "--refresh")
	require.Error(t, err)
	assert.Equal(t, "Unauthorized", err.Error())
	assert.Contains(t, out.stderr, "Session ended")

	token, _ := e.store.Token(ctx)
	user, _ := e.store.User(ctx)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "health")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "is up")

	cmd := NewRootCommand(WithConfig(e.config()), WithTokenStore(e.store))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"health", "--api-url", "http://127.0.0.1:1"})
	assert.ErrorContains(t, cmd.Execute(), "not healthy")
}

func TestDashboardAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	programs, _ := e.backend.Collection(domain.Programs)
	programs.Create(ctx, domain.Record{"name": "Coding"})
	blog, _ := e.backend.Collection(domain.Blog)
	blog.Create(ctx, domain.Record{"title": "Hello"})

	_, err := e.run(t, "", "dashboard", "admin")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	e.login(t)
	out, err := e.run(t, "", "dashboard", "admin")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Admin dashboard")
	assert.Regexp(t, `Members:\s+1`, out.stdout)
	assert.Regexp(t, `Programs:\s+1`, out.stdout)
	assert.Regexp(t, `Posts:\s+1`, out.stdout)

	out, err = e.run(t, "", "dashboard", "news")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Hello")
}

func TestBook(t *testing.T) {
	e := newEnv(t)
	services, _ := e.backend.Collection(domain.Services)
	services.Create(context.Background(), domain.Record{"name": "Coaching", "price": 40})

	out, err := e.run(t, "", "dashboard", "home")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Coaching")

	_, err = e.run(t, "", "book", "1", "--date", "2025-01-01")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	e.login(t)
	out, err = e.run(t, "", "book", "1")
	assert.ErrorIs(t, err, errBookingFailed)
	assert.Contains(t, out.stderr, "Please fill all required fields")

	out, err = e.run(t, "", "book", "1", "--date", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out.stderr, "Service booking submitted")

	_, err = e.run(t, "", "book", "99", "--date", "2025-01-01")
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestUpload(t *testing.T) {
	fake := testutil.NewFakeBackend(t)
	fake.Handle(http.MethodPost, "/blog/1/image", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, header, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"filename": header.Filename,
			"size":     len(data),
			"caption":  r.FormValue("caption"),
		})
	})

	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	store := tokenstore.NewMemory()
	require.NoError(t, store.SetToken(context.Background(), "tok"))
	cfg := &config.Config{APIBaseURL: fake.URL(), LoginPath: config.DefaultLoginPath, CacheTTL: time.Minute, LogLevel: "error"}
	cmd := NewRootCommand(WithConfig(cfg), WithTokenStore(store))
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"upload", "/blog/1/image", path, "--field", "image", "caption=Cover"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), `"filename": "cover.png"`)
	assert.Contains(t, stdout.String(), `"size": 9`)
	assert.Contains(t, stdout.String(), `"caption": "Cover"`)

	call, ok := fake.LastCall()
	require.True(t, ok)
	assert.Equal(t, "Bearer tok", call.Header.Get("Authorization"))
}
