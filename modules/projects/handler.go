package projects

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workdeck/workdeck/internal/httputil"
	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// Store is the project persistence surface the module needs.
type Store interface {
	Create(ctx context.Context, p *storage.Project) error
	ByID(ctx context.Context, tenantID, id uuid.UUID) (*storage.Project, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]storage.Project, error)
	Update(ctx context.Context, p *storage.Project) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Handler serves tenant-scoped project CRUD. It runs behind the access
// interceptor: every request context carries the resolved tenant and role.
// Reads are open to any member; writes require admin or above.
type Handler struct {
	log   *slog.Logger
	store Store
}

// NewHandler creates the projects handler.
func NewHandler(log *slog.Logger, store Store) *Handler {
	if store == nil {
		panic("projects: nil store")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{log: log, store: store}
}

// Router mounts the project endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{projectID}", h.get)
	r.Put("/{projectID}", h.update)
	r.Delete("/{projectID}", h.remove)
	return r
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())

	projects, err := h.store.List(r.Context(), t.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "project listing failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "project listing failed")
		return
	}
	if projects == nil {
		projects = []storage.Project{}
	}
	httputil.JSON(w, http.StatusOK, projects)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	project, err := h.store.ByID(r.Context(), t.ID, id)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			httputil.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.log.ErrorContext(r.Context(), "project lookup failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "project lookup failed")
		return
	}
	httputil.JSON(w, http.StatusOK, project)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())
	if !requireRole(w, r, membership.RoleAdmin) {
		return
	}

	var req projectRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.Error(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	status := storage.ProjectActive
	if req.Status != "" {
		status = storage.ProjectStatus(req.Status)
		if !storage.ValidProjectStatus(status) {
			httputil.Error(w, http.StatusUnprocessableEntity, "invalid status")
			return
		}
	}

	now := time.Now()
	project := &storage.Project{
		ID:          uuid.New(),
		TenantID:    t.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.Create(r.Context(), project); err != nil {
		h.log.ErrorContext(r.Context(), "project creation failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "project creation failed")
		return
	}
	httputil.JSON(w, http.StatusCreated, project)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())
	if !requireRole(w, r, membership.RoleAdmin) {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req projectRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.Error(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	status := storage.ProjectStatus(req.Status)
	if !storage.ValidProjectStatus(status) {
		httputil.Error(w, http.StatusUnprocessableEntity, "invalid status")
		return
	}

	project := &storage.Project{
		ID:          id,
		TenantID:    t.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
	}
	if err := h.store.Update(r.Context(), project); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			httputil.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.log.ErrorContext(r.Context(), "project update failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "project update failed")
		return
	}
	httputil.JSON(w, http.StatusOK, project)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	t := tenant.MustFromContext(r.Context())
	if !requireRole(w, r, membership.RoleAdmin) {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	if err := h.store.Delete(r.Context(), t.ID, id); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			httputil.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.log.ErrorContext(r.Context(), "project deletion failed", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "project deletion failed")
		return
	}
	httputil.NoContent(w)
}

func requireRole(w http.ResponseWriter, r *http.Request, min membership.Role) bool {
	role, err := membership.RequireRole(r.Context())
	if err != nil || !role.AtLeast(min) {
		httputil.Error(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}
