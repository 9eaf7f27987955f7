package api

import (
	"context"
	"net/http"
	"net/url"

	"orgsite-client/internal/domain"
)

// Resource exposes CRUD for one backend collection.
type Resource struct {
	client *Client
	kind   domain.ResourceKind
}

// Resource returns the endpoint group for kind.
func (c *Client) Resource(kind domain.ResourceKind) *Resource {
	return &Resource{client: c, kind: kind}
}

func (c *Client) Users() *Resource    { return c.Resource(domain.Users) }
func (c *Client) Programs() *Resource { return c.Resource(domain.Programs) }
func (c *Client) Services() *Resource { return c.Resource(domain.Services) }
func (c *Client) Events() *Resource   { return c.Resource(domain.Events) }
func (c *Client) Blog() *Resource     { return c.Resource(domain.Blog) }

// Kind returns the collection this group serves.
func (r *Resource) Kind() domain.ResourceKind {
	return r.kind
}

func (r *Resource) List(ctx context.Context) Result {
	return r.client.Get(ctx, r.kind.Path())
}

func (r *Resource) Get(ctx context.Context, id string) Result {
	return r.client.Get(ctx, r.itemPath(id))
}

func (r *Resource) Create(ctx context.Context, data any) Result {
	return r.client.Post(ctx, r.kind.Path(), data)
}

func (r *Resource) Update(ctx context.Context, id string, data any) Result {
	return r.client.Put(ctx, r.itemPath(id), data)
}

func (r *Resource) Delete(ctx context.Context, id string) Result {
	return r.client.Delete(ctx, r.itemPath(id))
}

func (r *Resource) itemPath(id string) string {
	return r.kind.ItemPath(url.PathEscape(id))
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// TokenResponse is the body returned by POST /login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login posts the credentials form-encoded, as the backend's OAuth2 form expects.
// The body keeps username before password; url.Values would sort the keys.
func (c *Client) Login(ctx context.Context, email, password string) Result {
	form := "username=" + url.QueryEscape(email) + "&password=" + url.QueryEscape(password)

	return c.Request(ctx, http.MethodPost, "/login", form, &RequestOptions{
		Header: http.Header{"Content-Type": []string{contentTypeForm}},
	})
}

// Register creates an account. It never touches the token store.
func (c *Client) Register(ctx context.Context, name, phone, email, password string) Result {
	return c.Post(ctx, "/register", RegisterRequest{
		Name:        name,
		PhoneNumber: phone,
		Email:       email,
		Password:    password,
	})
}
