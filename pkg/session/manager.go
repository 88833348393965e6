package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager issues, resolves, and revokes sessions, moving the opaque token
// through an HttpOnly cookie.
type Manager struct {
	store Store
	cfg   Config
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, cfg Config) *Manager {
	if store == nil {
		panic("session: nil store")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultConfig().CookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Manager{store: store, cfg: cfg}
}

// Issue creates a session for userID and sets the session cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	session := NewSession(token, userID, m.cfg.TTL)
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return session, nil
}

// FromRequest resolves the session carried by the request cookie.
// Expired sessions are deleted from the store and reported as ErrSessionExpired.
// Sessions past the midpoint of their lifetime are touched, sliding the
// expiry forward by a full TTL.
func (m *Manager) FromRequest(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoToken
	}

	session, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		_ = m.store.Delete(ctx, session.Token)
		return nil, ErrSessionExpired
	}

	if time.Until(session.ExpiresAt) < m.cfg.TTL/2 {
		expiresAt := time.Now().Add(m.cfg.TTL)
		if err := m.store.Touch(ctx, session.Token, expiresAt); err == nil {
			session.ExpiresAt = expiresAt
		}
	}

	return session, nil
}

// Revoke deletes the request's session and clears the cookie.
func (m *Manager) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err == nil && cookie.Value != "" {
		if err := m.store.Delete(ctx, cookie.Value); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Principal adapts the manager to the access middleware. A missing,
// unknown, or expired session reports a zero UUID; any other store error
// is returned as-is so callers can distinguish "anonymous" from "the
// session store is unreachable".
func (m *Manager) Principal() func(r *http.Request) (uuid.UUID, error) {
	return func(r *http.Request) (uuid.UUID, error) {
		session, err := m.FromRequest(r.Context(), r)
		switch {
		case err == nil:
			return session.UserID, nil
		case errors.Is(err, ErrNoToken),
			errors.Is(err, ErrSessionNotFound),
			errors.Is(err, ErrSessionExpired):
			return uuid.Nil, nil
		default:
			return uuid.Nil, err
		}
	}
}

func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
