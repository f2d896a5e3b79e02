package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/environment"
)

// EnvironmentService is the environment manager as seen by the HTTP layer.
type EnvironmentService interface {
	Get(ctx context.Context, id string) (*environment.Environment, error)
	List(ctx context.Context) ([]environment.Environment, error)
	Create(ctx context.Context, in environment.CreateInput, createdBy environment.CreatedBy, initial bool) (*environment.Environment, error)
	Update(ctx context.Context, id string, in environment.UpdateInput, current *environment.Environment) (environment.Changes, error)
	Delete(ctx context.Context, id string) error
}

// EnvironmentHandler handles the /cms/environments endpoints.
type EnvironmentHandler struct {
	envs EnvironmentService
}

// NewEnvironmentHandler creates a new EnvironmentHandler.
func NewEnvironmentHandler(envs EnvironmentService) *EnvironmentHandler {
	return &EnvironmentHandler{envs: envs}
}

// Create handles POST /cms/environments.
func (h *EnvironmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in environment.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	env, err := h.envs.Create(r.Context(), in, createdBy(r), false)
	if err != nil {
		writeCMSError(w, r, err, "Failed to create environment")
		return
	}

	response.Success(w, http.StatusCreated, env, middleware.GetRequestID(r.Context()))
}

// List handles GET /cms/environments.
func (h *EnvironmentHandler) List(w http.ResponseWriter, r *http.Request) {
	envs, err := h.envs.List(r.Context())
	if err != nil {
		writeCMSError(w, r, err, "Failed to list environments")
		return
	}
	if envs == nil {
		envs = []environment.Environment{}
	}

	response.SuccessList(w, http.StatusOK, envs, len(envs), middleware.GetRequestID(r.Context()))
}

// Get handles GET /cms/environments/{id}.
func (h *EnvironmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	env, ok := h.load(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, env, middleware.GetRequestID(r.Context()))
}

// Update handles PATCH /cms/environments/{id} and responds with the full,
// updated environment.
func (h *EnvironmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in environment.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	current, ok := h.load(w, r)
	if !ok {
		return
	}

	changes, err := h.envs.Update(r.Context(), current.ID, in, current)
	if err != nil {
		writeCMSError(w, r, err, "Failed to update environment")
		return
	}

	response.Success(w, http.StatusOK, changes.Apply(*current), middleware.GetRequestID(r.Context()))
}

// Delete handles DELETE /cms/environments/{id}.
func (h *EnvironmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.envs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeCMSError(w, r, err, "Failed to delete environment")
		return
	}

	response.NoContent(w)
}

func (h *EnvironmentHandler) load(w http.ResponseWriter, r *http.Request) (*environment.Environment, bool) {
	env, err := h.envs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCMSError(w, r, err, "Failed to get environment")
		return nil, false
	}
	if env == nil {
		writeCMSError(w, r, environment.ErrEnvironmentNotFound, "")
		return nil, false
	}
	return env, true
}
