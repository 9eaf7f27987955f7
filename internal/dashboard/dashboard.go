// Package dashboard implements the page flows: the admin and member
// dashboards and the public home and news pages.
package dashboard

import (
	"context"

	"orgsite-client/internal/api"
	"orgsite-client/internal/domain"
)

// Guard is the auth surface a page needs.
type Guard interface {
	RequireAuth(ctx context.Context, role string) bool
	CurrentUser(ctx context.Context) *domain.UserProfile
	Logout(ctx context.Context)
}

// Collection is one backend collection, cached or not.
type Collection interface {
	Load(ctx context.Context, force bool) api.Result
	Create(ctx context.Context, data any) api.Result
	Update(ctx context.Context, id string, data any) api.Result
	Delete(ctx context.Context, id string) api.Result
}

// Dialogs is the modal surface the pages drive.
type Dialogs interface {
	Open(id string, fields map[string]any)
	Close(id string) bool
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// uncached exposes a plain endpoint group as a Collection. Every load hits
// the server.
type uncached struct {
	res *api.Resource
}

// Uncached wraps res so it can be used where a Collection is expected.
func Uncached(res *api.Resource) Collection {
	return uncached{res: res}
}

func (u uncached) Load(ctx context.Context, _ bool) api.Result { return u.res.List(ctx) }
func (u uncached) Create(ctx context.Context, data any) api.Result {
	return u.res.Create(ctx, data)
}
func (u uncached) Update(ctx context.Context, id string, data any) api.Result {
	return u.res.Update(ctx, id, data)
}
func (u uncached) Delete(ctx context.Context, id string) api.Result {
	return u.res.Delete(ctx, id)
}
