package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/tenant"
	"github.com/daap14/headless/internal/validation"
)

const timeLayout = "2006-01-02T15:04:05Z"

type createTenantRequest struct {
	Name string `json:"name"`
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		CreatedAt: t.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: t.UpdatedAt.UTC().Format(timeLayout),
	}
}

// TenantHandler handles tenant CRUD endpoints.
type TenantHandler struct {
	repo tenant.Repository
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(repo tenant.Repository) *TenantHandler {
	return &TenantHandler{repo: repo}
}

// Create handles POST /tenants.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if fieldErrors := validation.ValidateCreateTenantRequest(validation.CreateTenantRequest{Name: req.Name}); len(fieldErrors) > 0 {
		response.ValidationErr(w, fieldErrors, requestID)
		return
	}

	t := &tenant.Tenant{Name: strings.TrimSpace(req.Name)}
	if err := h.repo.Create(r.Context(), t); err != nil {
		if errors.Is(err, tenant.ErrDuplicateTenantName) {
			response.Err(w, http.StatusConflict, "DUPLICATE_NAME", fmt.Sprintf("A tenant named %q already exists", t.Name), requestID)
			return
		}
		slog.Error("failed to create tenant", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create tenant", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTenantResponse(t), requestID)
}

// List handles GET /tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenants, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list tenants", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tenants", requestID)
		return
	}

	items := make([]tenantResponse, 0, len(tenants))
	for i := range tenants {
		items = append(items, toTenantResponse(&tenants[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Get handles GET /tenants/{id}.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return
		}
		slog.Error("failed to get tenant", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get tenant", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// Delete handles DELETE /tenants/{id}. Documents stored under the tenant's
// partitions are left in place.
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return
		}
		if errors.Is(err, tenant.ErrTenantHasUsers) {
			response.Err(w, http.StatusConflict, "TENANT_HAS_USERS", "Cannot delete tenant with users", requestID)
			return
		}
		slog.Error("failed to delete tenant", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete tenant", requestID)
		return
	}

	response.NoContent(w)
}
