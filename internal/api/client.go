// Package api is the single HTTP gateway to the organization backend.
// Every call returns a Result; no error or panic escapes this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"orgsite-client/internal/domain"
	"orgsite-client/internal/navigation"
	"orgsite-client/internal/observability"
)

const (
	// DefaultLoginPath is where a 401 sends the user.
	DefaultLoginPath = "/pages/login.html"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// RequestOptions adjusts a single request.
type RequestOptions struct {
	// Header values override the defaults, Content-Type included.
	Header http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders adds default headers sent with every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithNavigator sets where the login redirect goes after a 401.
func WithNavigator(nav navigation.Navigator) Option {
	return func(c *Client) {
		if nav != nil {
			c.nav = nav
		}
	}
}

// WithLoginPath overrides the login page path.
func WithLoginPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.loginPath = path
		}
	}
}

// WithRateLimiter throttles outbound calls. Calls wait for a slot, they are never retried.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// Client talks to the REST backend on behalf of the stored session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	store      domain.TokenStore
	nav        navigation.Navigator
	loginPath  string
	limiter    *rate.Limiter
}

// NewClient creates a Client for baseURL that reads the bearer token from store.
func NewClient(baseURL string, store domain.TokenStore, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("api: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if store == nil {
		return nil, errors.New("api: token store is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No timeout: the caller's context bounds the call.
		httpClient: &http.Client{},
		headers:    make(http.Header),
		store:      store,
		nav:        navigation.Nop{},
		loginPath:  DefaultLoginPath,
	}
	c.headers.Set("Content-Type", contentTypeJSON)
	c.headers.Set("Accept", contentTypeJSON)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginPath returns the page a 401 navigates to.
func (c *Client) LoginPath() string {
	return c.loginPath
}

// Store returns the token store the client reads from.
func (c *Client) Store() domain.TokenStore {
	return c.store
}

// Request performs exactly one call and normalizes the outcome.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts *RequestOptions) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(method)

	header := c.buildHeader(ctx)
	if opts != nil {
		for k, values := range opts.Header {
			header.Del(k)
			for _, v := range values {
				header.Add(k, v)
			}
		}
	}

	var reader io.Reader
	if body != nil && hasBody(method) {
		encoded, err := encodeBody(header.Get("Content-Type"), body)
		if err != nil {
			return c.finish(ctx, method, path, time.Now(), Fail(err.Error(), 0))
		}
		reader = bytes.NewReader(encoded)
	}

	return c.do(ctx, method, path, header, reader)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) Result {
	return c.Request(ctx, http.MethodGet, path, nil, nil)
}

// Post issues a JSON POST request.
func (c *Client) Post(ctx context.Context, path string, body any) Result {
	return c.Request(ctx, http.MethodPost, path, body, nil)
}

// Put issues a JSON PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) Result {
	return c.Request(ctx, http.MethodPut, path, body, nil)
}

// Patch issues a JSON PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) Result {
	return c.Request(ctx, http.MethodPatch, path, body, nil)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) Result {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// Health reports whether GET / succeeded.
func (c *Client) Health(ctx context.Context) bool {
	return c.Get(ctx, "/").Success
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body io.Reader) Result {
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.finish(ctx, method, path, start, Fail(err.Error(), 0))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return c.finish(ctx, method, path, start, Fail(fmt.Sprintf("failed to create request: %v", err), 0))
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.finish(ctx, method, path, start, Fail(err.Error(), 0))
	}
	defer resp.Body.Close()

	return c.finish(ctx, method, path, start, c.normalize(ctx, resp))
}

// normalize maps a response onto a Result. The order of checks matters:
// 401 wins over everything, 204 never reads the body.
func (c *Client) normalize(ctx context.Context, resp *http.Response) Result {
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		c.teardown(ctx)
		return Fail("Unauthorized", http.StatusUnauthorized)
	}

	if resp.StatusCode == http.StatusNoContent {
		return Ok(nil, resp.StatusCode)
	}

	data := parseJSON(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := detailMessage(data)
		if msg == "" {
			msg = "HTTP " + strconv.Itoa(resp.StatusCode)
		}
		return Fail(msg, resp.StatusCode)
	}

	return Ok(data, resp.StatusCode)
}

// teardown drops the session and sends the user to the login page.
func (c *Client) teardown(ctx context.Context) {
	logger := observability.FromContext(ctx)
	if err := c.store.Clear(ctx); err != nil {
		logger.Error("failed to clear session after 401", slog.String("error", err.Error()))
	}
	observability.SessionTeardownsTotal.Inc()
	logger.Warn("session rejected by server", slog.String("redirect", c.loginPath))
	c.nav.Navigate(ctx, c.loginPath)
}

func (c *Client) finish(ctx context.Context, method, path string, start time.Time, res Result) Result {
	resource := resourceLabel(path)
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	observability.ClientRequestsTotal.WithLabelValues(method, resource, outcome).Inc()
	observability.ClientRequestDuration.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())

	logger := observability.FromContext(ctx)
	if res.Success {
		logger.Debug("api request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", res.Status),
		)
	} else {
		logger.Warn("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", res.Status),
			slog.String("error", res.Error),
		)
	}
	return res
}

func (c *Client) buildHeader(ctx context.Context) http.Header {
	header := c.headers.Clone()
	token, err := c.store.Token(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("failed to read token, sending anonymous request",
			slog.String("error", err.Error()))
	}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return header
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func encodeBody(contentType string, body any) ([]byte, error) {
	if strings.EqualFold(strings.TrimSpace(contentType), contentTypeForm) {
		switch b := body.(type) {
		case string:
			return []byte(b), nil
		case []byte:
			return b, nil
		case url.Values:
			return []byte(b.Encode()), nil
		default:
			return nil, fmt.Errorf("unsupported form body type %T", body)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

// parseJSON returns the body when it is valid JSON and nil otherwise.
func parseJSON(r io.Reader) json.RawMessage {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.RawMessage(raw)
}

// detailMessage extracts the server's detail field. Non-string details are
// rendered as compact JSON.
func detailMessage(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if len(body.Detail) == 0 || bytes.Equal(body.Detail, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body.Detail); err != nil {
		return string(body.Detail)
	}
	return buf.String()
}

// resourceLabel keeps metric cardinality bounded to the first path segment.
func resourceLabel(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(p, "/?"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}
