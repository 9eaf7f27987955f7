package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"orgsite-client/internal/api"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/notify"
	"orgsite-client/internal/observability"
	"orgsite-client/internal/service"
)

const (
	MsgItemDeleted      = "Item deleted"
	MsgDeleteFailed     = "Failed to delete item"
	MsgItemNotFound     = "Item not found"
	MsgUserEditDisabled = "User editing not yet implemented"

	deleteTitle   = "Delete"
	deleteMessage = "Are you sure you want to delete this item?"
)

// editDialogs maps a collection to the modal holding its form.
var editDialogs = map[domain.ResourceKind]string{
	domain.Programs: "programModal",
	domain.Services: "serviceModal",
	domain.Blog:     "newsModal",
	domain.Events:   "eventModal",
}

// Stats are the dashboard counters.
type Stats struct {
	Members  int
	Programs int
	Services int
	Posts    int
}

// AdminCollections maps every collection to its source: the shared caches
// where one exists and the plain endpoint group for users.
func AdminCollections(data *service.Data, client *api.Client) map[domain.ResourceKind]Collection {
	return map[domain.ResourceKind]Collection{
		domain.Users:    Uncached(client.Users()),
		domain.Programs: data.Programs(),
		domain.Services: data.Services(),
		domain.Events:   data.Events(),
		domain.Blog:     data.Blog(),
	}
}

// Admin is the administrator dashboard.
type Admin struct {
	guard       Guard
	collections map[domain.ResourceKind]Collection
	notifier    notify.Notifier
	dialogs     Dialogs
	now         func() time.Time

	mu          sync.RWMutex
	state       map[domain.ResourceKind][]domain.Record
	lastUpdated time.Time
}

// NewAdmin wires the dashboard. collections must hold every kind in domain.AllKinds.
func NewAdmin(guard Guard, collections map[domain.ResourceKind]Collection, notifier notify.Notifier, dialogs Dialogs) *Admin {
	return &Admin{
		guard:       guard,
		collections: collections,
		notifier:    notifier,
		dialogs:     dialogs,
		now:         time.Now,
		state:       make(map[domain.ResourceKind][]domain.Record),
	}
}

// Init guards the page and loads every collection.
func (a *Admin) Init(ctx context.Context) error {
	if !a.guard.RequireAuth(ctx, "admin") {
		return domain.ErrAuthRequired
	}
	return a.LoadAll(ctx)
}

// LoadAll fetches every collection concurrently. A failing collection is
// reported to the user and keeps its previous state.
func (a *Admin) LoadAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range domain.AllKinds {
		kind := kind
		g.Go(func() error {
			a.load(gctx, kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.mu.Lock()
	a.lastUpdated = a.now()
	a.mu.Unlock()
	return nil
}

func (a *Admin) load(ctx context.Context, kind domain.ResourceKind) {
	coll, ok := a.collections[kind]
	if !ok {
		return
	}

	res := coll.Load(ctx, true)
	if !res.Success {
		observability.FromContext(ctx).Warn("failed to load collection",
			slog.String("resource", string(kind)),
			slog.String("error", res.Error),
		)
		a.notifier.Show(fmt.Sprintf("Failed to load %s: %s", strings.ToLower(kind.Label()), res.Error), notify.Error)
		return
	}

	a.mu.Lock()
	a.state[kind] = res.Records()
	a.mu.Unlock()
}

// Items returns the loaded records of kind.
func (a *Admin) Items(kind domain.ResourceKind) []domain.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.Record(nil), a.state[kind]...)
}

// Stats counts members, programs, services and posts.
func (a *Admin) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{
		Members:  len(a.state[domain.Users]),
		Programs: len(a.state[domain.Programs]),
		Services: len(a.state[domain.Services]),
		Posts:    len(a.state[domain.Blog]),
	}
}

// LastUpdated is when LoadAll last finished.
func (a *Admin) LastUpdated() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastUpdated
}

// Save creates the record when id is empty and updates it otherwise.
func (a *Admin) Save(ctx context.Context, kind domain.ResourceKind, id string, data any) api.Result {
	coll, err := a.collection(kind)
	if err != nil {
		return api.Fail(err.Error(), 0)
	}

	var res api.Result
	verb := "created"
	if id == "" {
		res = coll.Create(ctx, data)
	} else {
		verb = "updated"
		res = coll.Update(ctx, id, data)
	}

	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Failed to save " + strings.ToLower(kind.Label())
		}
		a.notifier.Show(msg, notify.Error)
		return res
	}

	a.notifier.Show(fmt.Sprintf("%s %s successfully", kind.Label(), verb), notify.Success)
	a.load(ctx, kind)
	return res
}

// Edit opens the form dialog for a loaded record.
func (a *Admin) Edit(kind domain.ResourceKind, id string) bool {
	if kind == domain.Users {
		a.notifier.Show(MsgUserEditDisabled, notify.Info)
		return false
	}

	rec, ok := a.find(kind, id)
	dialogID, hasDialog := editDialogs[kind]
	if !ok || !hasDialog {
		a.notifier.Show(MsgItemNotFound, notify.Error)
		return false
	}

	fields := map[string]any{"editId": rec.ID(), "modalTitle": "Edit " + kind.Label()}
	for k, v := range rec {
		if k != "id" {
			fields[k] = v
		}
	}
	a.dialogs.Open(dialogID, fields)
	return true
}

// Delete asks for confirmation, deletes and reloads. It reports whether
// the record was deleted.
func (a *Admin) Delete(ctx context.Context, kind domain.ResourceKind, id string) bool {
	coll, err := a.collection(kind)
	if err != nil {
		a.notifier.Show(MsgDeleteFailed, notify.Error)
		return false
	}

	ok, err := a.dialogs.Confirm(ctx, deleteTitle, deleteMessage)
	if err != nil || !ok {
		return false
	}

	res := coll.Delete(ctx, id)
	if !res.Success {
		a.notifier.Show(MsgDeleteFailed, notify.Error)
		return false
	}

	a.notifier.Show(MsgItemDeleted, notify.Success)
	a.load(ctx, kind)
	return true
}

// Logout ends the session.
func (a *Admin) Logout(ctx context.Context) {
	a.guard.Logout(ctx)
}

func (a *Admin) collection(kind domain.ResourceKind) (Collection, error) {
	coll, ok := a.collections[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownResource, kind)
	}
	return coll, nil
}

func (a *Admin) find(kind domain.ResourceKind, id string) (domain.Record, bool) {
	want := domain.NormalizeID(id)
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, rec := range a.state[kind] {
		if rec.ID() == want {
			return rec, true
		}
	}
	return nil, false
}
