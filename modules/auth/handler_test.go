package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/modules/auth"
	"github.com/workdeck/workdeck/pkg/authevent"
	"github.com/workdeck/workdeck/pkg/session"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*storage.User
	byID    map[uuid.UUID]*storage.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail: make(map[string]*storage.User),
		byID:    make(map[uuid.UUID]*storage.User),
	}
}

func (f *fakeUsers) Create(_ context.Context, user *storage.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[user.Email]; ok {
		return storage.ErrEmailTaken
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) ByID(_ context.Context, id uuid.UUID) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeUsers, authevent.Bus) {
	t.Helper()

	users := newFakeUsers()
	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })
	sessions := session.NewManager(store, session.DefaultConfig())
	bus := authevent.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	h := auth.NewHandler(nil, users, sessions, bus, auth.Config{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, users, bus
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestHandler_SignUp(t *testing.T) {
	t.Parallel()

	t.Run("creates user and issues session", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t)

		resp := postJSON(t, srv.Client(), srv.URL+"/signup", map[string]string{
			"email":    "dev@acme.test",
			"password": "correct-horse",
		})
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "workdeck_session" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.NotEmpty(t, cookie.Value)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t)

		body := map[string]string{"email": "dev@acme.test", "password": "correct-horse"}
		resp := postJSON(t, srv.Client(), srv.URL+"/signup", body)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = postJSON(t, srv.Client(), srv.URL+"/signup", body)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t)

		resp := postJSON(t, srv.Client(), srv.URL+"/signup", map[string]string{
			"email":    "dev@acme.test",
			"password": "short",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t)

		resp := postJSON(t, srv.Client(), srv.URL+"/signup", map[string]string{
			"email":    "not-an-address",
			"password": "correct-horse",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandler_SignIn(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid credentials and publishes event", func(t *testing.T) {
		t.Parallel()
		srv, _, bus := newTestServer(t)

		resp := postJSON(t, srv.Client(), srv.URL+"/signup", map[string]string{
			"email":    "dev@acme.test",
			"password": "correct-horse",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		sub := bus.Subscribe(context.Background())
		defer sub.Close()

		resp = postJSON(t, srv.Client(), srv.URL+"/signin", map[string]string{
			"email":    "dev@acme.test",
			"password": "correct-horse",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		select {
		case msg := <-sub.Receive(context.Background()):
			assert.Equal(t, authevent.SignedIn, msg.Data.Type)
		case <-time.After(time.Second):
			t.Fatal("no signed-in event received")
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t)

		resp := postJSON(t, srv.Client(), srv.URL+"/signup", map[string]string{
			"email":    "dev@acme.test",
			"password": "correct-horse",
		})
		resp.Body.Close()

		resp = postJSON(t, srv.Client(), srv.URL+"/signin", map[string]string{
			"email":    "dev@acme.test",
			"password": "wrong-horse-battery",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects unknown email with the same status", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t)

		resp := postJSON(t, srv.Client(), srv.URL+"/signin", map[string]string{
			"email":    "ghost@acme.test",
			"password": "whatever-pass",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects passwordless invited account", func(t *testing.T) {
		t.Parallel()
		srv, users, _ := newTestServer(t)

		invited := &storage.User{ID: uuid.New(), Email: "invitee@acme.test", CreatedAt: time.Now()}
		require.NoError(t, users.Create(context.Background(), invited))

		resp := postJSON(t, srv.Client(), srv.URL+"/signin", map[string]string{
			"email":    "invitee@acme.test",
			"password": "",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHandler_MeAndSignOut(t *testing.T) {
	t.Parallel()

	srv, _, bus := newTestServer(t)

	resp := postJSON(t, srv.Client(), srv.URL+"/signup", map[string]string{
		"email":    "dev@acme.test",
		"password": "correct-horse",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	withCookies := func(req *http.Request) *http.Request {
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return req
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	require.NoError(t, err)
	meResp, err := srv.Client().Do(withCookies(req))
	require.NoError(t, err)
	defer meResp.Body.Close()
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&me))
	assert.Equal(t, "dev@acme.test", me.Email)

	sub := bus.Subscribe(context.Background())
	defer sub.Close()

	req, err = http.NewRequest(http.MethodPost, srv.URL+"/signout", nil)
	require.NoError(t, err)
	outResp, err := srv.Client().Do(withCookies(req))
	require.NoError(t, err)
	outResp.Body.Close()
	require.Equal(t, http.StatusNoContent, outResp.StatusCode)

	select {
	case msg := <-sub.Receive(context.Background()):
		assert.Equal(t, authevent.SignedOut, msg.Data.Type)
	case <-time.After(time.Second):
		t.Fatal("no signed-out event received")
	}

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	require.NoError(t, err)
	meResp, err = srv.Client().Do(withCookies(req))
	require.NoError(t, err)
	defer meResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, meResp.StatusCode)
}

func TestHandler_Unauthorized(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/unauthorized")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandler_RateLimit(t *testing.T) {
	t.Parallel()

	users := newFakeUsers()
	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })
	sessions := session.NewManager(store, session.DefaultConfig())
	bus := authevent.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	h := auth.NewHandler(nil, users, sessions, bus, auth.Config{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	var last int
	for i := 0; i < 3; i++ {
		resp := postJSON(t, srv.Client(), srv.URL+"/signin", map[string]string{
			"email":    fmt.Sprintf("u%d@acme.test", i),
			"password": "whatever-pass",
		})
		resp.Body.Close()
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
