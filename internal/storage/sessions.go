package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/workdeck/pkg/pg"
	"github.com/workdeck/workdeck/pkg/session"
)

// SessionStore is the Postgres-backed session store.
type SessionStore struct {
	db *pgxpool.Pool
}

var _ session.Store = (*SessionStore)(nil)

// NewSessionStore creates a session store over the given pool.
func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (id, token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query,
		sess.ID, sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at
		FROM sessions
		WHERE token = $1
	`
	sess := &session.Session{}
	err := s.db.QueryRow(ctx, query, token).Scan(
		&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	query := `UPDATE sessions SET expires_at = $2 WHERE token = $1`
	tag, err := s.db.Exec(ctx, query, token, expiresAt)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`
	if _, err := s.db.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at < NOW()`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
