package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/workdeck/workdeck/internal/httputil"
	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/pkg/authevent"
	"github.com/workdeck/workdeck/pkg/broadcast"
	"github.com/workdeck/workdeck/pkg/email"
	"github.com/workdeck/workdeck/pkg/session"
)

const minPasswordLength = 8

// UserStore is the subset of user persistence the auth module needs.
type UserStore interface {
	Create(ctx context.Context, user *storage.User) error
	ByEmail(ctx context.Context, email string) (*storage.User, error)
	ByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
}

// Handler serves the authentication surface: sign-up, sign-in, sign-out and
// the current-user endpoint. Session changes are published on the auth event
// bus.
type Handler struct {
	log      *slog.Logger
	users    UserStore
	sessions *session.Manager
	bus      authevent.Bus
	cfg      Config
}

// Config tunes the auth module.
type Config struct {
	RateLimitRequests int           `env:"AUTH_RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// NewHandler creates the auth handler.
func NewHandler(log *slog.Logger, users UserStore, sessions *session.Manager, bus authevent.Bus, cfg Config) *Handler {
	if users == nil {
		panic("auth: nil user store")
	}
	if sessions == nil {
		panic("auth: nil session manager")
	}
	if bus == nil {
		panic("auth: nil event bus")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{log: log, users: users, sessions: sessions, bus: bus, cfg: cfg}
}

// Router mounts the auth endpoints. Credential endpoints are rate limited
// per client IP.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	limited := httputil.RateLimit(h.cfg.RateLimitRequests, h.cfg.RateLimitWindow, h.log)
	r.Group(func(r chi.Router) {
		r.Use(limited)
		r.Post("/signup", h.signUp)
		r.Post("/signin", h.signIn)
	})

	r.Post("/signout", h.signOut)
	r.Get("/me", h.me)
	r.Get("/unauthorized", h.unauthorized)

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !email.ValidAddress(req.Email) {
		httputil.Error(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		httputil.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.ErrorContext(r.Context(), "password hashing failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "sign-up failed")
		return
	}

	user := &storage.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			httputil.Error(w, http.StatusConflict, "email already registered")
			return
		}
		h.log.ErrorContext(r.Context(), "user creation failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "sign-up failed")
		return
	}

	if _, err := h.sessions.Issue(r.Context(), w, user.ID); err != nil {
		h.log.ErrorContext(r.Context(), "session issue failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "sign-up failed")
		return
	}
	h.publish(r.Context(), authevent.SignedIn, user.ID)

	httputil.JSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.ByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.ErrorContext(r.Context(), "user lookup failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	// Invited users without a password cannot sign in until they set one.
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if _, err := h.sessions.Issue(r.Context(), w, user.ID); err != nil {
		h.log.ErrorContext(r.Context(), "session issue failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	h.publish(r.Context(), authevent.SignedIn, user.ID)

	httputil.JSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	var userID uuid.UUID
	if sess, err := h.sessions.FromRequest(r.Context(), r); err == nil {
		userID = sess.UserID
	}

	if err := h.sessions.Revoke(r.Context(), w, r); err != nil {
		h.log.ErrorContext(r.Context(), "session revoke failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "sign-out failed")
		return
	}
	if userID != uuid.Nil {
		h.publish(r.Context(), authevent.SignedOut, userID)
	}

	httputil.NoContent(w)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r.Context(), r)
	if err != nil {
		httputil.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	user, err := h.users.ByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "not signed in")
			return
		}
		h.log.ErrorContext(r.Context(), "user lookup failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	httputil.JSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	httputil.Error(w, http.StatusForbidden, "you do not have access to this workspace")
}

func (h *Handler) publish(ctx context.Context, typ authevent.Type, userID uuid.UUID) {
	err := h.bus.Broadcast(ctx, broadcast.Message[authevent.Event]{Data: authevent.Event{
		Type:   typ,
		UserID: userID,
		At:     time.Now(),
	}})
	if err != nil {
		h.log.WarnContext(ctx, "auth event broadcast failed",
			slog.String("type", string(typ)), slog.Any("error", err))
	}
}
