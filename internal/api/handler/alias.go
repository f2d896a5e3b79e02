package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/environment"
)

// AliasService is the environment alias manager as seen by the HTTP layer.
type AliasService interface {
	Get(ctx context.Context, id string) (*environment.Alias, error)
	List(ctx context.Context) ([]environment.Alias, error)
	Create(ctx context.Context, in environment.CreateAliasInput, createdBy environment.CreatedBy) (*environment.Alias, error)
	Update(ctx context.Context, id string, in environment.UpdateAliasInput, current *environment.Alias) (*environment.Alias, error)
	Delete(ctx context.Context, id string) error
}

// AliasHandler handles the /cms/environment-aliases endpoints.
type AliasHandler struct {
	aliases AliasService
}

// NewAliasHandler creates a new AliasHandler.
func NewAliasHandler(aliases AliasService) *AliasHandler {
	return &AliasHandler{aliases: aliases}
}

// Create handles POST /cms/environment-aliases.
func (h *AliasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in environment.CreateAliasInput
	if !decodeJSON(w, r, &in) {
		return
	}

	alias, err := h.aliases.Create(r.Context(), in, createdBy(r))
	if err != nil {
		writeCMSError(w, r, err, "Failed to create environment alias")
		return
	}

	response.Success(w, http.StatusCreated, alias, middleware.GetRequestID(r.Context()))
}

// List handles GET /cms/environment-aliases.
func (h *AliasHandler) List(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.aliases.List(r.Context())
	if err != nil {
		writeCMSError(w, r, err, "Failed to list environment aliases")
		return
	}
	if aliases == nil {
		aliases = []environment.Alias{}
	}

	response.SuccessList(w, http.StatusOK, aliases, len(aliases), middleware.GetRequestID(r.Context()))
}

// Get handles GET /cms/environment-aliases/{id}.
func (h *AliasHandler) Get(w http.ResponseWriter, r *http.Request) {
	alias, ok := h.load(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, alias, middleware.GetRequestID(r.Context()))
}

// Update handles PATCH /cms/environment-aliases/{id}.
func (h *AliasHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in environment.UpdateAliasInput
	if !decodeJSON(w, r, &in) {
		return
	}

	current, ok := h.load(w, r)
	if !ok {
		return
	}

	updated, err := h.aliases.Update(r.Context(), current.ID, in, current)
	if err != nil {
		writeCMSError(w, r, err, "Failed to update environment alias")
		return
	}

	response.Success(w, http.StatusOK, updated, middleware.GetRequestID(r.Context()))
}

// Delete handles DELETE /cms/environment-aliases/{id}.
func (h *AliasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.aliases.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeCMSError(w, r, err, "Failed to delete environment alias")
		return
	}

	response.NoContent(w)
}

func (h *AliasHandler) load(w http.ResponseWriter, r *http.Request) (*environment.Alias, bool) {
	alias, err := h.aliases.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCMSError(w, r, err, "Failed to get environment alias")
		return nil, false
	}
	if alias == nil {
		writeCMSError(w, r, environment.ErrAliasNotFound, "")
		return nil, false
	}
	return alias, true
}
