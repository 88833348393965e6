package workspace

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workdeck/workdeck/internal/httputil"
	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/pkg/access"
	"github.com/workdeck/workdeck/pkg/email"
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/session"
	"github.com/workdeck/workdeck/pkg/slug"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// TenantStore is the tenant persistence surface the workspace module needs.
// CreateWithOwner must be atomic: the tenant and its owner membership either
// both persist or neither does.
type TenantStore interface {
	CreateWithOwner(ctx context.Context, t *tenant.Tenant, ownerID uuid.UUID) error
}

// MemberStore is the membership persistence surface the workspace module needs.
type MemberStore interface {
	Add(ctx context.Context, m *membership.Membership) error
	Remove(ctx context.Context, tenantID, userID uuid.UUID) error
	Role(ctx context.Context, tenantID, userID uuid.UUID) (membership.Role, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]storage.UserTenant, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]storage.Member, error)
}

// UserStore is the user persistence surface the workspace module needs.
type UserStore interface {
	GetOrCreateByEmail(ctx context.Context, email string) (*storage.User, error)
}

// Handler serves workspace management: creation, member invitations and
// removal, and the caller's workspace list.
type Handler struct {
	log       *slog.Logger
	tenants   TenantStore
	members   MemberStore
	users     UserStore
	mailer    email.Sender
	urls      tenant.URLConfig
	principal access.Principal
}

// NewHandler creates the workspace handler.
func NewHandler(
	log *slog.Logger,
	tenants TenantStore,
	members MemberStore,
	users UserStore,
	mailer email.Sender,
	urls tenant.URLConfig,
	sessions *session.Manager,
) *Handler {
	if tenants == nil || members == nil || users == nil {
		panic("workspace: nil store")
	}
	if mailer == nil {
		panic("workspace: nil mailer")
	}
	if sessions == nil {
		panic("workspace: nil session manager")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		log:       log,
		tenants:   tenants,
		members:   members,
		users:     users,
		mailer:    mailer,
		urls:      urls,
		principal: sessions.Principal(),
	}
}

// Router mounts workspace creation and listing. These endpoints are
// reachable on the apex host, outside any tenant scope; the caller is
// identified by their session alone.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	return r
}

// MembersRouter mounts member management. These endpoints run behind the
// access interceptor, which guarantees tenant and role in the context.
func (h *Handler) MembersRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listMembers)
	r.Post("/", h.invite)
	r.Delete("/{userID}", h.removeMember)
	return r
}

type createRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type workspaceResponse struct {
	ID   uuid.UUID       `json:"id"`
	Name string          `json:"name"`
	Slug string          `json:"slug"`
	URL  string          `json:"url"`
	Role membership.Role `json:"role,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.Error(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s := req.Slug
	if s == "" {
		s = slug.Make(req.Name)
	}
	if err := slug.Validate(s); err != nil {
		httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t := &tenant.Tenant{
		ID:        uuid.New(),
		Name:      req.Name,
		Slug:      s,
		CreatedAt: time.Now(),
	}
	if err := h.tenants.CreateWithOwner(r.Context(), t, userID); err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			httputil.Error(w, http.StatusUnprocessableEntity, "slug is already taken")
			return
		}
		h.log.ErrorContext(r.Context(), "workspace creation failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "workspace creation failed")
		return
	}

	httputil.JSON(w, http.StatusCreated, workspaceResponse{
		ID:   t.ID,
		Name: t.Name,
		Slug: t.Slug,
		URL:  h.urls.WorkspaceURL(t.Slug),
		Role: membership.RoleOwner,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	memberships, err := h.members.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "workspace listing failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "workspace listing failed")
		return
	}

	out := make([]workspaceResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, workspaceResponse{
			ID:   m.Tenant.ID,
			Name: m.Tenant.Name,
			Slug: m.Tenant.Slug,
			URL:  h.urls.WorkspaceURL(m.Tenant.Slug),
			Role: m.Role,
		})
	}
	httputil.JSON(w, http.StatusOK, out)
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())

	members, err := h.members.ListMembers(r.Context(), t.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "member listing failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "member listing failed")
		return
	}
	httputil.JSON(w, http.StatusOK, members)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())
	if !requireRole(w, r, membership.RoleAdmin) {
		return
	}

	var req inviteRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !email.ValidAddress(req.Email) {
		httputil.Error(w, http.StatusUnprocessableEntity, "invalid email address")
		return
	}

	role := membership.RoleMember
	if req.Role != "" {
		parsed, err := membership.ParseRole(req.Role)
		if err != nil {
			httputil.Error(w, http.StatusUnprocessableEntity, "invalid role")
			return
		}
		role = parsed
	}

	user, err := h.users.GetOrCreateByEmail(r.Context(), req.Email)
	if err != nil {
		h.log.ErrorContext(r.Context(), "invitee lookup failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "invitation failed")
		return
	}

	err = h.members.Add(r.Context(), &membership.Membership{
		TenantID:  t.ID,
		UserID:    user.ID,
		Role:      role,
		CreatedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, membership.ErrAlreadyMember) {
			httputil.Error(w, http.StatusConflict, "already a member")
			return
		}
		h.log.ErrorContext(r.Context(), "membership creation failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "invitation failed")
		return
	}

	// Delivery failure does not undo the membership; the invitee can still
	// sign in directly.
	if err := h.mailer.Send(r.Context(), invitationEmail(user.Email, t, h.urls)); err != nil {
		h.log.WarnContext(r.Context(), "invitation email failed",
			slog.String("tenant_id", t.ID.String()), slog.Any("error", err))
	}

	httputil.JSON(w, http.StatusCreated, storage.Member{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     role,
		JoinedAt: time.Now(),
	})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())
	if !requireRole(w, r, membership.RoleAdmin) {
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	targetRole, err := h.members.Role(r.Context(), t.ID, targetID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httputil.Error(w, http.StatusNotFound, "not a member")
			return
		}
		h.log.ErrorContext(r.Context(), "member lookup failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "member removal failed")
		return
	}
	if targetRole == membership.RoleOwner {
		httputil.Error(w, http.StatusUnprocessableEntity, "owners cannot be removed")
		return
	}

	if err := h.members.Remove(r.Context(), t.ID, targetID); err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			httputil.Error(w, http.StatusNotFound, "not a member")
			return
		}
		h.log.ErrorContext(r.Context(), "member removal failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "member removal failed")
		return
	}

	httputil.NoContent(w)
}

// identify resolves the session principal, writing the failure response
// when there is none. A session store outage is reported as retryable, not
// as a missing session.
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := h.principal(r)
	if err != nil {
		h.log.ErrorContext(r.Context(), "session resolution failed", slog.Any("error", err))
		httputil.Error(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return uuid.Nil, false
	}
	if userID == uuid.Nil {
		httputil.Error(w, http.StatusUnauthorized, "not signed in")
		return uuid.Nil, false
	}
	return userID, true
}

// requireRole enforces a role threshold from the interceptor-injected
// context. Writes a 403 and returns false when the caller falls short.
func requireRole(w http.ResponseWriter, r *http.Request, min membership.Role) bool {
	role, err := membership.RequireRole(r.Context())
	if err != nil || !role.AtLeast(min) {
		httputil.Error(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func invitationEmail(to string, t *tenant.Tenant, urls tenant.URLConfig) email.Message {
	url := urls.WorkspaceURL(t.Slug)
	// The workspace name is user input and must not reach the HTML body raw.
	name := html.EscapeString(t.Name)
	return email.Message{
		To:      to,
		Subject: fmt.Sprintf("You have been invited to %s", t.Name),
		HTML: fmt.Sprintf(
			`<p>You have been added to the <strong>%s</strong> workspace.</p><p><a href="%s">Open %s</a></p>`,
			name, url, url,
		),
		Tag: "workspace-invitation",
	}
}
