package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgsite-client/internal/api"
	"orgsite-client/internal/dialog"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/navigation"
	"orgsite-client/internal/notify"
	"orgsite-client/internal/service"
	"orgsite-client/internal/testutil"
	"orgsite-client/internal/tokenstore"
)

type noTimer struct{}

func (noTimer) Stop() bool { return true }

type fixture struct {
	backend *testutil.FakeBackend
	store   *tokenstore.Memory
	client  *api.Client
	auth    *service.AuthService
	data    *service.Data
	toasts  *notify.Center
	dialogs *dialog.Manager
	nav     *navigation.Recorder
	answer  string
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	f := &fixture{
		backend: testutil.NewFakeBackend(t),
		store:   tokenstore.NewMemory(),
		nav:     &navigation.Recorder{},
		answer:  dialog.ActionConfirm,
	}
	require.NoError(t, f.store.SetToken(context.Background(), token))

	client, err := api.NewClient(f.backend.URL(), f.store, api.WithNavigator(f.nav))
	require.NoError(t, err)
	f.client = client

	f.toasts = notify.NewCenter(notify.WithAfterFunc(func(time.Duration, func()) notify.Timer { return noTimer{} }))
	f.dialogs = dialog.NewManager(dialog.WithOpenHook(func(d dialog.Dialog) {
		if d.Prompt {
			f.dialogs.Resolve(d.ID, f.answer)
		}
	}))

	scheduler := navigation.NewScheduler(f.nav, navigation.WithAfterFunc(func(time.Duration, func()) navigation.Timer { return noTimer{} }))
	f.auth = service.NewAuthService(client, f.store,
		service.WithNotifier(f.toasts),
		service.WithNavigator(f.nav),
		service.WithScheduler(scheduler),
	)
	f.data = service.NewData(client, f.auth)
	f.auth.OnLogout(f.data.ClearOnLogout)
	return f
}

func (f *fixture) seedCollections() {
	f.backend.RespondJSON(http.MethodGet, "/user/", http.StatusOK, testutil.NewTestRecords(3))
	f.backend.RespondJSON(http.MethodGet, "/programs/", http.StatusOK, []domain.Record{
		testutil.NewTestRecord(testutil.WithRecordID(1), testutil.WithField("name", "Leadership")),
		testutil.NewTestRecord(testutil.WithRecordID(2), testutil.WithField("name", "Coding")),
	})
	f.backend.RespondJSON(http.MethodGet, "/services/", http.StatusOK, []domain.Record{
		testutil.NewTestRecord(testutil.WithRecordID(10), testutil.WithField("name", "Coaching"), testutil.WithField("price", 40)),
	})
	f.backend.RespondJSON(http.MethodGet, "/event/", http.StatusOK, testutil.NewTestRecords(4))
	f.backend.RespondJSON(http.MethodGet, "/blog/", http.StatusOK, testutil.NewTestRecords(5))
}

func (f *fixture) admin() *Admin {
	return NewAdmin(f.auth, AdminCollections(f.data, f.client), f.toasts, f.dialogs)
}

func messages(c *notify.Center) []string {
	var out []string
	for _, n := range c.Active() {
		out = append(out, n.Message)
	}
	return out
}

func TestAdmin_InitLoadsEverything(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.seedCollections()
	admin := f.admin()

	require.NoError(t, admin.Init(context.Background()))

	assert.Equal(t, Stats{Members: 3, Programs: 2, Services: 1, Posts: 5}, admin.Stats())
	assert.Len(t, admin.Items(domain.Events), 4)
	assert.False(t, admin.LastUpdated().IsZero())
	for _, kind := range domain.AllKinds {
		assert.Equal(t, 1, f.backend.CallCount(http.MethodGet, kind.Path()), kind)
	}
	assert.Empty(t, f.toasts.Active())

	// Loaded collections are visible through the shared cache too
	assert.Equal(t, 2, f.data.Programs().Len())
}

func TestAdmin_InitWithoutSession(t *testing.T) {
	f := newFixture(t, "")
	f.seedCollections()

	err := f.admin().Init(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Empty(t, f.backend.Calls())
	assert.Equal(t, []string{service.MsgPleaseLogIn}, messages(f.toasts))
}

func TestAdmin_InitToleratesFailures(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.seedCollections()
	f.backend.RespondJSON(http.MethodGet, "/event/", http.StatusInternalServerError, map[string]string{"detail": "boom"})

	admin := f.admin()
	require.NoError(t, admin.Init(context.Background()))

	assert.Equal(t, []string{"Failed to load event: boom"}, messages(f.toasts))
	assert.Empty(t, admin.Items(domain.Events))
	assert.Equal(t, 2, admin.Stats().Programs)
}

func TestAdmin_SaveCreatesAndUpdates(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.seedCollections()
	f.backend.RespondJSON(http.MethodPost, "/programs/", http.StatusCreated, map[string]any{"id": 3, "name": "Music"})
	f.backend.RespondJSON(http.MethodPut, "/blog/7", http.StatusAccepted, map[string]any{"id": 7, "title": "Updated"})
	admin := f.admin()
	ctx := context.Background()
	require.NoError(t, admin.Init(ctx))

	res := admin.Save(ctx, domain.Programs, "", map[string]any{"name": "Music"})
	require.True(t, res.Success)
	res = admin.Save(ctx, domain.Blog, "7", map[string]any{"title": "Updated"})
	require.True(t, res.Success)

	assert.Equal(t, []string{"Program created successfully", "News updated successfully"}, messages(f.toasts))
	assert.Equal(t, 2, f.backend.CallCount(http.MethodGet, "/programs/"), "collection is reloaded after save")
	assert.Equal(t, 2, f.backend.CallCount(http.MethodGet, "/blog/"))
}

func TestAdmin_SaveFailure(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.backend.RespondJSON(http.MethodPost, "/services/", http.StatusBadRequest, map[string]string{"detail": "Price must be positive"})
	f.backend.Respond(http.MethodPut, "/event/1", http.StatusInternalServerError, "")
	admin := f.admin()
	ctx := context.Background()

	assert.False(t, admin.Save(ctx, domain.Services, "", map[string]any{}).Success)
	assert.False(t, admin.Save(ctx, domain.Events, "1", map[string]any{}).Success)

	assert.Equal(t, []string{"Price must be positive", "HTTP 500"}, messages(f.toasts))
}

func TestAdmin_SaveFallbackMessage(t *testing.T) {
	f := newFixture(t, "admin-token")
	admin := NewAdmin(f.auth, map[domain.ResourceKind]Collection{domain.Services: failingCollection{}}, f.toasts, f.dialogs)

	admin.Save(context.Background(), domain.Services, "", nil)
	assert.Equal(t, []string{"Failed to save service"}, messages(f.toasts))
}

type failingCollection struct{}

func (failingCollection) Load(context.Context, bool) api.Result          { return api.Fail("", 0) }
func (failingCollection) Create(context.Context, any) api.Result         { return api.Fail("", 0) }
func (failingCollection) Update(context.Context, string, any) api.Result { return api.Fail("", 0) }
func (failingCollection) Delete(context.Context, string) api.Result      { return api.Fail("", 0) }

func TestAdmin_DeleteConfirmed(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.seedCollections()
	f.backend.RespondJSON(http.MethodDelete, "/programs/1", http.StatusNoContent, nil)
	admin := f.admin()
	ctx := context.Background()
	require.NoError(t, admin.Init(ctx))

	f.backend.RespondJSON(http.MethodGet, "/programs/", http.StatusOK, []domain.Record{
		testutil.NewTestRecord(testutil.WithRecordID(2)),
	})
	assert.True(t, admin.Delete(ctx, domain.Programs, "1"))

	assert.Equal(t, []string{MsgItemDeleted}, messages(f.toasts))
	assert.Equal(t, 1, admin.Stats().Programs)
	assert.Empty(t, f.dialogs.OpenIDs())
}

func TestAdmin_DeleteDeclined(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.answer = dialog.ActionCancel
	admin := f.admin()

	assert.False(t, admin.Delete(context.Background(), domain.Programs, "1"))
	assert.Zero(t, f.backend.CallCount(http.MethodDelete, "/programs/1"))
	assert.Empty(t, f.toasts.Active())
}

func TestAdmin_DeleteFailure(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.backend.RespondJSON(http.MethodDelete, "/user/4", http.StatusNotFound, map[string]string{"detail": "User not found"})

	assert.False(t, f.admin().Delete(context.Background(), domain.Users, "4"))
	assert.Equal(t, []string{MsgDeleteFailed}, messages(f.toasts))
}

func TestAdmin_Edit(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.seedCollections()
	admin := f.admin()
	require.NoError(t, admin.Init(context.Background()))

	assert.True(t, admin.Edit(domain.Services, "10"))
	d, ok := f.dialogs.Get("serviceModal")
	require.True(t, ok)
	assert.True(t, d.Open)
	assert.Equal(t, "10", d.Fields["editId"])
	assert.Equal(t, "Coaching", d.Fields["name"])
	assert.Equal(t, "Edit Service", d.Fields["modalTitle"])

	assert.False(t, admin.Edit(domain.Programs, "404"))
	assert.False(t, admin.Edit(domain.Users, "1"))
	assert.Equal(t, []string{MsgItemNotFound, MsgUserEditDisabled}, messages(f.toasts))
}

func TestAdmin_Logout(t *testing.T) {
	f := newFixture(t, "admin-token")
	f.admin().Logout(context.Background())

	assert.False(t, f.auth.IsLoggedIn(context.Background()))
	assert.Equal(t, api.DefaultLoginPath, f.nav.Last())
}

func TestMember(t *testing.T) {
	tests := []struct {
		name    string
		profile *domain.UserProfile
		want    string
	}{
		{"name", testutil.NewTestProfile(testutil.WithProfileName("Ann Lee")), "Ann Lee"},
		{"email_local_part", testutil.NewTestProfile(testutil.WithProfileEmail("ann.lee@example.org")), "ann.lee"},
		{"no_profile", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "member-token")
			require.NoError(t, f.store.SetUser(context.Background(), tt.profile))

			m := NewMember(f.auth)
			require.NoError(t, m.Init(context.Background()))
			assert.Equal(t, tt.want, m.DisplayName())
		})
	}
}

func TestMember_InitWithoutSession(t *testing.T) {
	f := newFixture(t, "")
	m := NewMember(f.auth)

	assert.ErrorIs(t, m.Init(context.Background()), domain.ErrAuthRequired)
	assert.Nil(t, m.User())
}

func TestHome_LoadIsPublicAndCached(t *testing.T) {
	f := newFixture(t, "")
	f.seedCollections()
	home := NewHome(f.data, f.auth, f.toasts, f.dialogs)
	ctx := context.Background()

	content := home.Load(ctx)
	assert.Len(t, content.Programs, 2)
	assert.Len(t, content.Services, 1)

	home.Load(ctx)
	assert.Equal(t, 1, f.backend.CallCount(http.MethodGet, "/programs/"))
	assert.Equal(t, 1, f.backend.CallCount(http.MethodGet, "/services/"))
}

func TestHome_LoadFailureLeavesSectionEmpty(t *testing.T) {
	f := newFixture(t, "")
	f.backend.RespondJSON(http.MethodGet, "/services/", http.StatusOK, []any{map[string]any{"id": 1}})

	content := NewHome(f.data, f.auth, f.toasts, f.dialogs).Load(context.Background())
	assert.Empty(t, content.Programs)
	assert.Len(t, content.Services, 1)
}

func TestHome_EnrollRequiresAuth(t *testing.T) {
	f := newFixture(t, "")
	home := NewHome(f.data, f.auth, f.toasts, f.dialogs)

	err := home.Enroll(context.Background(), "10")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.False(t, f.dialogs.IsOpen(BookingDialogID))
	assert.NotNil(t, f.auth.PendingRedirect())
}

func TestHome_EnrollAndSubmit(t *testing.T) {
	f := newFixture(t, "member-token")
	f.seedCollections()
	home := NewHome(f.data, f.auth, f.toasts, f.dialogs)
	ctx := context.Background()
	home.Load(ctx)

	require.NoError(t, home.Enroll(ctx, "10"))
	d, ok := f.dialogs.Get(BookingDialogID)
	require.True(t, ok)
	assert.True(t, d.Open)
	assert.Equal(t, "Book Coaching", d.Options.Title)
	assert.Equal(t, "10", d.Fields["service_id"])

	assert.False(t, home.SubmitBooking(ctx, map[string]any{"notes": "mornings"}))
	assert.True(t, f.dialogs.IsOpen(BookingDialogID))

	assert.True(t, home.SubmitBooking(ctx, map[string]any{"date": "2024-07-01"}))
	assert.False(t, f.dialogs.IsOpen(BookingDialogID))
	assert.Equal(t, []string{MsgFillRequired, MsgBookingSubmitted}, messages(f.toasts))
}

func TestHome_EnrollUnknownService(t *testing.T) {
	f := newFixture(t, "member-token")
	home := NewHome(f.data, f.auth, f.toasts, f.dialogs)

	assert.Error(t, home.Enroll(context.Background(), "999"))
	assert.Equal(t, []string{MsgServiceNotFound}, messages(f.toasts))
}

func TestNews(t *testing.T) {
	t.Run("requires_session", func(t *testing.T) {
		f := newFixture(t, "")
		f.seedCollections()

		posts, res := NewNews(f.data).Load(context.Background())
		assert.Nil(t, posts)
		assert.Equal(t, service.MsgAuthRequired, res.Error)
		assert.Zero(t, f.backend.CallCount(http.MethodGet, "/blog/"))
	})

	t.Run("logged_in", func(t *testing.T) {
		f := newFixture(t, "member-token")
		f.seedCollections()

		posts, res := NewNews(f.data).Load(context.Background())
		assert.True(t, res.Success)
		assert.Len(t, posts, 5)
	})
}
