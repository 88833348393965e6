package workspace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/modules/workspace"
	"github.com/workdeck/workdeck/pkg/email"
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/session"
	"github.com/workdeck/workdeck/pkg/tenant"
)

type fakeTenants struct {
	mu      sync.Mutex
	bySlug  map[string]*tenant.Tenant
	created []*tenant.Tenant
	members *fakeMembers
	failErr error
}

func newFakeTenants(members *fakeMembers) *fakeTenants {
	return &fakeTenants{bySlug: make(map[string]*tenant.Tenant), members: members}
}

// CreateWithOwner mirrors the store's all-or-nothing contract: on failure
// neither the tenant nor the membership is recorded.
func (f *fakeTenants) CreateWithOwner(ctx context.Context, t *tenant.Tenant, ownerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if _, ok := f.bySlug[t.Slug]; ok {
		return storage.ErrSlugTaken
	}
	f.bySlug[t.Slug] = t
	f.created = append(f.created, t)
	return f.members.Add(ctx, &membership.Membership{
		TenantID:  t.ID,
		UserID:    ownerID,
		Role:      membership.RoleOwner,
		CreatedAt: t.CreatedAt,
	})
}

type memberKey struct {
	tenantID uuid.UUID
	userID   uuid.UUID
}

type fakeMembers struct {
	mu    sync.Mutex
	rows  map[memberKey]*membership.Membership
	users map[uuid.UUID]string
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{
		rows:  make(map[memberKey]*membership.Membership),
		users: make(map[uuid.UUID]string),
	}
}

func (f *fakeMembers) Add(_ context.Context, m *membership.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{m.TenantID, m.UserID}
	if _, ok := f.rows[key]; ok {
		return membership.ErrAlreadyMember
	}
	f.rows[key] = m
	return nil
}

func (f *fakeMembers) Remove(_ context.Context, tenantID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{tenantID, userID}
	if _, ok := f.rows[key]; !ok {
		return membership.ErrNotMember
	}
	delete(f.rows, key)
	return nil
}

func (f *fakeMembers) Role(_ context.Context, tenantID, userID uuid.UUID) (membership.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[memberKey{tenantID, userID}]
	if !ok {
		return "", membership.ErrNotMember
	}
	return m.Role, nil
}

func (f *fakeMembers) ListByUser(_ context.Context, userID uuid.UUID) ([]storage.UserTenant, error) {
	return nil, nil
}

func (f *fakeMembers) ListMembers(_ context.Context, tenantID uuid.UUID) ([]storage.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Member
	for key, m := range f.rows {
		if key.tenantID != tenantID {
			continue
		}
		out = append(out, storage.Member{
			UserID:   m.UserID,
			Email:    f.users[m.UserID],
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		})
	}
	return out, nil
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*storage.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*storage.User)}
}

func (f *fakeUsers) GetOrCreateByEmail(_ context.Context, addr string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[addr]; ok {
		return u, nil
	}
	u := &storage.User{ID: uuid.New(), Email: addr, CreatedAt: time.Now()}
	f.byEmail[addr] = u
	return u, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}

type fixture struct {
	handler *workspace.Handler
	tenants *fakeTenants
	members *fakeMembers
	users   *fakeUsers
	mailer  *recordingMailer
	manager *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	manager := session.NewManager(store, session.DefaultConfig())

	members := newFakeMembers()
	tenants := newFakeTenants(members)
	users := newFakeUsers()
	mailer := &recordingMailer{}

	h := workspace.NewHandler(nil, tenants, members, users, mailer,
		tenant.URLConfig{Environment: "production", RootDomain: "workdeck.app"}, manager)

	return &fixture{
		handler: h,
		tenants: tenants,
		members: members,
		users:   users,
		mailer:  mailer,
		manager: manager,
	}
}

// signIn issues a session for a fresh user and returns its cookie.
func (f *fixture) signIn(t *testing.T) (uuid.UUID, *http.Cookie) {
	t.Helper()
	userID := uuid.New()
	rec := httptest.NewRecorder()
	_, err := f.manager.Issue(context.Background(), rec, userID)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return userID, cookies[0]
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestHandler_CreateWorkspace(t *testing.T) {
	t.Parallel()

	t.Run("creates tenant with owner membership", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID, cookie := f.signIn(t)

		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"name": "Acme Corp",
		}))
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		f.handler.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Slug string `json:"slug"`
			URL  string `json:"url"`
			Role string `json:"role"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "acme-corp", resp.Slug)
		assert.Equal(t, "https://acme-corp.workdeck.app", resp.URL)
		assert.Equal(t, "owner", resp.Role)

		require.Len(t, f.tenants.created, 1)
		role, err := f.members.Role(context.Background(), f.tenants.created[0].ID, userID)
		require.NoError(t, err)
		assert.Equal(t, membership.RoleOwner, role)
	})

	t.Run("rejects taken slug as validation failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, cookie := f.signIn(t)

		create := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
				"name": "Acme",
				"slug": "acme",
			}))
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			f.handler.Router().ServeHTTP(rec, req)
			return rec
		}

		require.Equal(t, http.StatusCreated, create().Code)
		assert.Equal(t, http.StatusUnprocessableEntity, create().Code)
	})

	t.Run("rejects reserved slug", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, cookie := f.signIn(t)

		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"name": "Whatever",
			"slug": "www",
		}))
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		f.handler.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("failed creation leaves no tenant behind", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, cookie := f.signIn(t)

		create := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
				"name": "Acme",
				"slug": "acme",
			}))
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			f.handler.Router().ServeHTTP(rec, req)
			return rec
		}

		f.tenants.failErr = errors.New("write timed out")
		require.Equal(t, http.StatusInternalServerError, create().Code)
		assert.Empty(t, f.tenants.created)

		// The slug is still free, so a retry of the same request succeeds.
		f.tenants.failErr = nil
		assert.Equal(t, http.StatusCreated, create().Code)
	})

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"name": "Acme",
		}))
		rec := httptest.NewRecorder()
		f.handler.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// tenantScoped builds a request as the access interceptor would forward it,
// with tenant and role already in the context.
func tenantScoped(req *http.Request, t *tenant.Tenant, role membership.Role) *http.Request {
	ctx := tenant.WithTenant(req.Context(), t)
	ctx = membership.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func TestHandler_Invite(t *testing.T) {
	t.Parallel()

	acme := &tenant.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme", CreatedAt: time.Now()}

	t.Run("admin invites by email with default member role", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"email": "invitee@acme.test",
		}))
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleAdmin))

		require.Equal(t, http.StatusCreated, rec.Code)

		invitee, err := f.users.GetOrCreateByEmail(context.Background(), "invitee@acme.test")
		require.NoError(t, err)
		role, err := f.members.Role(context.Background(), acme.ID, invitee.ID)
		require.NoError(t, err)
		assert.Equal(t, membership.RoleMember, role)

		sent := f.mailer.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "invitee@acme.test", sent[0].To)
		assert.Contains(t, sent[0].HTML, "https://acme.workdeck.app")
	})

	t.Run("workspace name is escaped in the email body", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		hostile := &tenant.Tenant{
			ID: uuid.New(), Name: `Acme <script>alert(1)</script>`, Slug: "acme", CreatedAt: time.Now(),
		}
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"email": "invitee@acme.test",
		}))
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, hostile, membership.RoleAdmin))

		require.Equal(t, http.StatusCreated, rec.Code)
		sent := f.mailer.messages()
		require.Len(t, sent, 1)
		assert.NotContains(t, sent[0].HTML, "<script>")
		assert.Contains(t, sent[0].HTML, "&lt;script&gt;")
	})

	t.Run("member cannot invite", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"email": "invitee@acme.test",
		}))
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleMember))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, f.mailer.messages())
	})

	t.Run("duplicate invitation conflicts", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		invite := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
				"email": "invitee@acme.test",
			}))
			rec := httptest.NewRecorder()
			f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleOwner))
			return rec
		}

		require.Equal(t, http.StatusCreated, invite().Code)
		assert.Equal(t, http.StatusConflict, invite().Code)
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"email": "invitee@acme.test",
			"role":  "superuser",
		}))
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleAdmin))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestHandler_RemoveMember(t *testing.T) {
	t.Parallel()

	acme := &tenant.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme", CreatedAt: time.Now()}

	t.Run("admin removes a member", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		target := uuid.New()
		require.NoError(t, f.members.Add(context.Background(), &membership.Membership{
			TenantID: acme.ID, UserID: target, Role: membership.RoleMember, CreatedAt: time.Now(),
		}))

		req := httptest.NewRequest(http.MethodDelete, "/"+target.String(), nil)
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleAdmin))

		require.Equal(t, http.StatusNoContent, rec.Code)
		_, err := f.members.Role(context.Background(), acme.ID, target)
		assert.ErrorIs(t, err, membership.ErrNotMember)
	})

	t.Run("owners cannot be removed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		owner := uuid.New()
		require.NoError(t, f.members.Add(context.Background(), &membership.Membership{
			TenantID: acme.ID, UserID: owner, Role: membership.RoleOwner, CreatedAt: time.Now(),
		}))

		req := httptest.NewRequest(http.MethodDelete, "/"+owner.String(), nil)
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleAdmin))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("removing a non-member is not found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodDelete, "/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		f.handler.MembersRouter().ServeHTTP(rec, tenantScoped(req, acme, membership.RoleOwner))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
