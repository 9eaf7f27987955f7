package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"orgsite-client/internal/domain"
	"orgsite-client/internal/navigation"
	"orgsite-client/internal/testutil"
)

func newTestClient(t *testing.T, backend *testutil.FakeBackend, store domain.TokenStore, opts ...Option) (*Client, *navigation.Recorder) {
	t.Helper()
	rec := &navigation.Recorder{}
	opts = append([]Option{WithNavigator(rec)}, opts...)
	c, err := NewClient(backend.URL(), store, opts...)
	require.NoError(t, err)
	return c, rec
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", testutil.NewMockTokenStore(""))
	assert.Error(t, err)

	_, err = NewClient("http://localhost:8000", nil)
	assert.Error(t, err)

	c, err := NewClient("http://localhost:8000/", testutil.NewMockTokenStore(""))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Equal(t, DefaultLoginPath, c.LoginPath())
}

func TestRequest_DefaultHeadersAndBearer(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/programs/", http.StatusOK, []any{})

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore("abc123"))
	res := c.Get(context.Background(), "/programs/")
	require.True(t, res.Success)

	call, ok := backend.LastCall()
	require.True(t, ok)
	assert.Equal(t, "Bearer abc123", call.Header.Get("Authorization"))
	assert.Equal(t, "application/json", call.Header.Get("Accept"))
	assert.Equal(t, "application/json", call.Header.Get("Content-Type"))
	assert.Empty(t, call.Body)
}

func TestRequest_NoTokenNoAuthorization(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/", http.StatusOK, map[string]string{"status": "ok"})

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
	assert.True(t, c.Health(context.Background()))

	call, _ := backend.LastCall()
	assert.Empty(t, call.Header.Get("Authorization"))
}

func TestRequest_TokenReadErrorTreatedAsAbsent(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/programs/", http.StatusOK, []any{})

	store := &testutil.MockTokenStore{
		TokenFunc: func(context.Context) (string, error) { return "", testutil.ErrMockStore },
	}
	c, _ := newTestClient(t, backend, store)

	res := c.Get(context.Background(), "/programs/")
	assert.True(t, res.Success)
	call, _ := backend.LastCall()
	assert.Empty(t, call.Header.Get("Authorization"))
}

func TestRequest_BodyOnlyForWriteMethods(t *testing.T) {
	tests := []struct {
		method   string
		wantBody bool
	}{
		{http.MethodGet, false},
		{http.MethodDelete, false},
		{http.MethodPost, true},
		{http.MethodPut, true},
		{http.MethodPatch, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.RespondJSON(tt.method, "/programs/1", http.StatusOK, map[string]any{"id": 1})

			c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
			res := c.Request(context.Background(), strings.ToLower(tt.method), "/programs/1", map[string]string{"title": "x"}, nil)
			require.True(t, res.Success)

			call, _ := backend.LastCall()
			if tt.wantBody {
				assert.JSONEq(t, `{"title":"x"}`, string(call.Body))
			} else {
				assert.Empty(t, call.Body)
			}
		})
	}
}

func TestRequest_FormBodies(t *testing.T) {
	form := url.Values{}
	form.Set("username", "a@b.org")
	form.Set("password", "p w")

	tests := []struct {
		name string
		body any
		want string
	}{
		{"url_values", form, form.Encode()},
		{"string", "a=1&b=2", "a=1&b=2"},
		{"bytes", []byte("raw=1"), "raw=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.RespondJSON(http.MethodPost, "/login", http.StatusOK, map[string]string{})

			c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
			res := c.Request(context.Background(), http.MethodPost, "/login", tt.body, &RequestOptions{
				Header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
			})
			require.True(t, res.Success)

			call, _ := backend.LastCall()
			assert.Equal(t, tt.want, string(call.Body))
			assert.Equal(t, "application/x-www-form-urlencoded", call.Header.Get("Content-Type"))
		})
	}

	t.Run("unsupported_type", func(t *testing.T) {
		backend := testutil.NewFakeBackend(t)
		c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))

		res := c.Request(context.Background(), http.MethodPost, "/login", 42, &RequestOptions{
			Header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "unsupported form body")
		assert.Empty(t, backend.Calls(), "nothing is sent when the body cannot be encoded")
	})
}

func TestRequest_Unauthorized(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/event/", http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})

	store := testutil.NewMockTokenStore("expired")
	store.StoredUser = testutil.NewTestProfile()
	c, rec := newTestClient(t, backend, store, WithLoginPath("/login.html"))

	res := c.Get(context.Background(), "/event/")

	assert.False(t, res.Success)
	assert.Equal(t, "Unauthorized", res.Error)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Empty(t, store.StoredToken)
	assert.Nil(t, store.StoredUser)
	assert.Equal(t, []string{"/login.html"}, rec.Paths())
	assert.ErrorIs(t, res.Err(), ErrUnauthorized)
}

func TestRequest_UnauthorizedClearFailureStillNavigates(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.Respond(http.MethodGet, "/user/", http.StatusUnauthorized, "")

	store := testutil.NewMockTokenStore("t")
	store.ClearFunc = func(context.Context) error { return testutil.ErrMockStore }
	c, rec := newTestClient(t, backend, store)

	res := c.Get(context.Background(), "/user/")
	assert.Equal(t, "Unauthorized", res.Error)
	assert.Equal(t, 1, store.ClearCalls)
	assert.Equal(t, DefaultLoginPath, rec.Last())
}

func TestRequest_NoContent(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodDelete, "/programs/3", http.StatusNoContent, nil)

	c, rec := newTestClient(t, backend, testutil.NewMockTokenStore("t"))
	res := c.Delete(context.Background(), "/programs/3")

	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.NoError(t, res.Err())
	assert.Empty(t, rec.Paths())
}

func TestRequest_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"string_detail", http.StatusBadRequest, `{"detail":"Email already registered"}`, "Email already registered"},
		{"structured_detail", http.StatusUnprocessableEntity, `{"detail": [ {"loc": ["body","email"], "msg": "field required"} ]}`, `[{"loc":["body","email"],"msg":"field required"}]`},
		{"empty_detail", http.StatusBadRequest, `{"detail":""}`, "HTTP 400"},
		{"null_detail", http.StatusNotFound, `{"detail":null}`, "HTTP 404"},
		{"no_detail", http.StatusForbidden, `{"message":"nope"}`, "HTTP 403"},
		{"non_json", http.StatusInternalServerError, `<html>boom</html>`, "HTTP 500"},
		{"empty_body", http.StatusBadGateway, ``, "HTTP 502"},
		{"array_body", http.StatusConflict, `["x"]`, "HTTP 409"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.Respond(http.MethodPost, "/register", tt.status, tt.body)

			c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
			res := c.Post(context.Background(), "/register", map[string]string{})

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantErr, res.Error)
			assert.Equal(t, tt.status, res.Status)

			var reqErr *RequestError
			require.ErrorAs(t, res.Err(), &reqErr)
			assert.Equal(t, tt.status, reqErr.Status)
			assert.False(t, errors.Is(res.Err(), ErrUnauthorized))
		})
	}
}

func TestRequest_LenientSuccessBody(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.Respond(http.MethodGet, "/", http.StatusOK, "Welcome!")

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
	res := c.Get(context.Background(), "/")

	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestRequest_SuccessData(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/programs/", http.StatusOK, []map[string]any{{"id": 1, "title": "Youth"}, {"id": "2"}})

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
	res := c.Programs().List(context.Background())

	require.True(t, res.Success)
	records := res.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID())
	assert.Equal(t, "Youth", records[0].Text("title"))
	assert.Equal(t, "2", records[1].ID())

	var decoded []struct {
		Title string `json:"title"`
	}
	require.NoError(t, res.Decode(&decoded))
	assert.Equal(t, "Youth", decoded[0].Title)
}

func TestRequest_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	c, err := NewClient(baseURL, testutil.NewMockTokenStore(""))
	require.NoError(t, err)

	res := c.Get(context.Background(), "/programs/")
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestRequest_ContextCancelled(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/programs/", http.StatusOK, []any{})
	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Get(ctx, "/programs/")
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Status)
	assert.Contains(t, res.Error, "context canceled")
}

func TestRequest_NoRetry(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.Respond(http.MethodGet, "/services/", http.StatusServiceUnavailable, "")

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
	c.Services().List(context.Background())

	assert.Equal(t, 1, backend.CallCount(http.MethodGet, "/services/"))
}

func TestRequest_HeaderOverrides(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/", http.StatusOK, map[string]string{})

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""),
		WithHeaders(http.Header{"X-Client": []string{"cli"}}))

	c.Request(context.Background(), http.MethodGet, "/", nil, &RequestOptions{
		Header: http.Header{"Accept": []string{"text/plain"}},
	})

	call, _ := backend.LastCall()
	assert.Equal(t, "cli", call.Header.Get("X-Client"))
	assert.Equal(t, []string{"text/plain"}, call.Header.Values("Accept"))
}

func TestRequest_RateLimiterWaits(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, "/", http.StatusOK, map[string]string{})

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""), WithRateLimiter(limiter))

	require.True(t, c.Get(context.Background(), "/").Success)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := c.Get(ctx, "/")
	assert.False(t, res.Success)
	assert.Equal(t, 1, backend.CallCount(http.MethodGet, "/"))
}

func TestUpload(t *testing.T) {
	backend := testutil.NewFakeBackend(t)

	var gotField, gotFile, gotName, gotCaption, contentType string
	backend.Handle(http.MethodPost, "/blog/upload", func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				gotField = part.FormName()
				gotName = part.FileName()
				gotFile = string(data)
			} else if part.FormName() == "caption" {
				gotCaption = string(data)
			}
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"url":"/static/cover.png"}`)
	})

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore("t"))
	res := c.Upload(context.Background(), "/blog/upload", strings.NewReader("PNG"), "cover.png", "", map[string]string{"caption": "Cover"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="))
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "cover.png", gotName)
	assert.Equal(t, "PNG", gotFile)
	assert.Equal(t, "Cover", gotCaption)

	call, _ := backend.LastCall()
	assert.Equal(t, "Bearer t", call.Header.Get("Authorization"))
	assert.Len(t, call.Header.Values("Content-Type"), 1)
}

func TestUpload_Unauthorized(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.Respond(http.MethodPost, "/upload", http.StatusUnauthorized, "")

	store := testutil.NewMockTokenStore("t")
	c, rec := newTestClient(t, backend, store)

	res := c.Upload(context.Background(), "/upload", strings.NewReader("x"), "x.txt", "doc", nil)
	assert.Equal(t, "Unauthorized", res.Error)
	assert.Empty(t, store.StoredToken)
	assert.Equal(t, DefaultLoginPath, rec.Last())
}

func TestResourcePaths(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore("t"))
	ctx := context.Background()

	c.Users().List(ctx)
	c.Programs().Get(ctx, "5")
	c.Services().Create(ctx, map[string]any{"name": "x"})
	c.Events().Update(ctx, "7", map[string]any{"title": "y"})
	c.Blog().Delete(ctx, "a b")

	var got []string
	for _, call := range backend.Calls() {
		got = append(got, call.Method+" "+call.Path)
	}
	assert.Equal(t, []string{
		"GET /user/",
		"GET /programs/5",
		"POST /services/",
		"PUT /event/7",
		"DELETE /blog/a b",
	}, got)
}

func TestLoginAndRegisterBodies(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.RespondJSON(http.MethodPost, "/login", http.StatusOK, TokenResponse{AccessToken: "abc123", TokenType: "bearer"})
	backend.RespondJSON(http.MethodPost, "/register", http.StatusCreated, map[string]any{"id": 1})

	c, _ := newTestClient(t, backend, testutil.NewMockTokenStore(""))
	ctx := context.Background()

	res := c.Login(ctx, "a@b.org", "s&cret pw")
	require.True(t, res.Success)
	var tok TokenResponse
	require.NoError(t, res.Decode(&tok))
	assert.Equal(t, "abc123", tok.AccessToken)

	login := backend.Calls()[0]
	assert.Equal(t, "application/x-www-form-urlencoded", login.Header.Get("Content-Type"))
	assert.Equal(t, "username=a%40b.org&password=s%26cret+pw", string(login.Body))

	require.True(t, c.Register(ctx, "Ann", "555", "a@b.org", "secret").Success)
	register := backend.Calls()[1]
	assert.JSONEq(t, `{"name":"Ann","phone_number":"555","email":"a@b.org","password":"secret"}`, string(register.Body))
}

func TestResourceLabel(t *testing.T) {
	assert.Equal(t, "root", resourceLabel("/"))
	assert.Equal(t, "programs", resourceLabel("/programs/"))
	assert.Equal(t, "event", resourceLabel("/event/12"))
	assert.Equal(t, "login", resourceLabel("/login"))
	assert.Equal(t, "user", resourceLabel("/user?x=1"))
}
