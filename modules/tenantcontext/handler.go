package tenantcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workdeck/workdeck/internal/httputil"
	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/pkg/access"
	"github.com/workdeck/workdeck/pkg/authevent"
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/session"
	"github.com/workdeck/workdeck/pkg/tenant"
	"github.com/workdeck/workdeck/pkg/tenantctx"
)

// UserStore is the profile lookup surface used to enrich snapshots.
type UserStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
}

// Handler exposes the session's resolved tenant context to clients: a
// one-shot snapshot and a live stream that follows sign-in and sign-out.
type Handler struct {
	log       *slog.Logger
	evaluator *access.Evaluator
	bus       authevent.Bus
	users     UserStore
	principal access.Principal
}

// NewHandler creates the tenant context handler.
func NewHandler(
	log *slog.Logger,
	evaluator *access.Evaluator,
	bus authevent.Bus,
	users UserStore,
	sessions *session.Manager,
) *Handler {
	if evaluator == nil {
		panic("tenantcontext: nil evaluator")
	}
	if bus == nil {
		panic("tenantcontext: nil event bus")
	}
	if users == nil {
		panic("tenantcontext: nil user store")
	}
	if sessions == nil {
		panic("tenantcontext: nil session manager")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		log:       log,
		evaluator: evaluator,
		bus:       bus,
		users:     users,
		principal: sessions.Principal(),
	}
}

// Router mounts the context endpoints. Both run behind the access
// interceptor, so tenant and role are already resolved in the request
// context.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.snapshot)
	r.Get("/stream", h.stream)
	return r
}

type tenantPayload struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type userPayload struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
}

type snapshotPayload struct {
	Tenant  *tenantPayload  `json:"tenant,omitempty"`
	User    *userPayload    `json:"user,omitempty"`
	Role    membership.Role `json:"role,omitempty"`
	Loading bool            `json:"loading"`
}

func toPayload(c tenantctx.Context) snapshotPayload {
	p := snapshotPayload{Role: c.Role, Loading: c.Loading}
	if c.Tenant != nil {
		p.Tenant = &tenantPayload{ID: c.Tenant.ID, Name: c.Tenant.Name, Slug: c.Tenant.Slug}
	}
	if c.User != nil {
		p.User = &userPayload{ID: c.User.ID, Email: c.User.Email}
	}
	return p
}

// snapshot returns the tenant context the interceptor resolved for this
// request, enriched with the caller's profile.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())
	role, err := membership.RequireRole(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusForbidden, "no role in scope")
		return
	}

	userID, err := h.principal(r)
	if err != nil {
		h.log.ErrorContext(r.Context(), "session resolution failed", slog.Any("error", err))
		httputil.Error(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	c := tenantctx.Context{Tenant: t, Role: role}
	if userID != uuid.Nil {
		c.User = &tenantctx.User{ID: userID}
		if u, err := h.users.ByID(r.Context(), userID); err == nil {
			c.User.Email = u.Email
		}
	}
	httputil.JSON(w, http.StatusOK, toPayload(c))
}

// streamEvent is one server-sent event on the context stream.
type streamEvent struct {
	name string
	data []byte
}

// stream serves the tenant context as server-sent events. A provider is
// created per connection, seeded with the interceptor's decision, and kept
// current by the auth event bus until the client disconnects. Sign-out
// produces an empty snapshot followed by a navigate event.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	t := tenant.MustFromContext(r.Context())
	role, err := membership.RequireRole(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusForbidden, "no role in scope")
		return
	}
	userID, err := h.principal(r)
	if err != nil {
		h.log.ErrorContext(r.Context(), "session resolution failed", slog.Any("error", err))
		httputil.Error(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	ctx := r.Context()
	events := make(chan streamEvent, 16)
	send := func(ev streamEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	provider := tenantctx.NewProvider(r.Host, h.evaluator, h.bus,
		tenantctx.WithLogger(h.log),
		tenantctx.WithUserLookup(h.lookupUser),
		tenantctx.WithOnChange(func(c tenantctx.Context) {
			raw, err := json.Marshal(toPayload(c))
			if err != nil {
				return
			}
			send(streamEvent{name: "context", data: raw})
		}),
		tenantctx.WithNavigate(func(path string) {
			send(streamEvent{name: "navigate", data: []byte(path)})
		}),
	)

	initial := tenantctx.Context{Tenant: t, Role: role, User: &tenantctx.User{ID: userID}}
	provider.Start(ctx, initial, userID)
	defer provider.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
			flusher.Flush()
		}
	}
}

func (h *Handler) lookupUser(ctx context.Context, id uuid.UUID) (tenantctx.User, error) {
	u, err := h.users.ByID(ctx, id)
	if err != nil {
		return tenantctx.User{}, err
	}
	return tenantctx.User{ID: u.ID, Email: u.Email}, nil
}
