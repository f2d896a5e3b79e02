package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/auth"
	"github.com/daap14/headless/internal/tenant"
	"github.com/daap14/headless/internal/validation"
)

// UserCreator issues a user together with its API key.
type UserCreator interface {
	CreateUser(ctx context.Context, name string, tenantID uuid.UUID) (*auth.User, string, error)
}

type createUserRequest struct {
	Name     string `json:"name"`
	TenantID string `json:"tenantId"`
}

type userResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TenantID     *string `json:"tenantId,omitempty"`
	TenantName   *string `json:"tenantName,omitempty"`
	ApiKeyPrefix string  `json:"apiKeyPrefix"`
	IsSuperuser  bool    `json:"isSuperuser"`
	CreatedAt    string  `json:"createdAt"`
	RevokedAt    *string `json:"revokedAt,omitempty"`
}

type userWithKeyResponse struct {
	userResponse
	ApiKey string `json:"apiKey"`
}

func toUserResponse(u *auth.User) userResponse {
	resp := userResponse{
		ID:           u.ID.String(),
		Name:         u.Name,
		ApiKeyPrefix: u.KeyPrefix,
		IsSuperuser:  u.IsSuperuser,
		CreatedAt:    u.CreatedAt.UTC().Format(timeLayout),
	}
	if u.Tenant != nil {
		tid, name := u.Tenant.ID.String(), u.Tenant.Name
		resp.TenantID = &tid
		resp.TenantName = &name
	}
	if u.RevokedAt != nil {
		revoked := u.RevokedAt.UTC().Format(timeLayout)
		resp.RevokedAt = &revoked
	}
	return resp
}

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	creator  UserCreator
	userRepo auth.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(creator UserCreator, userRepo auth.UserRepository) *UserHandler {
	return &UserHandler{creator: creator, userRepo: userRepo}
}

// Create handles POST /users. The raw API key is only ever returned here.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Name:     req.Name,
		TenantID: req.TenantID,
	})
	if len(fieldErrors) > 0 {
		response.ValidationErr(w, fieldErrors, requestID)
		return
	}

	tenantID, _ := uuid.Parse(req.TenantID) // already validated

	u, rawKey, err := h.creator.CreateUser(r.Context(), strings.TrimSpace(req.Name), tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return
		}
		slog.Error("failed to create user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", requestID)
		return
	}

	response.Success(w, http.StatusCreated, userWithKeyResponse{
		userResponse: toUserResponse(u),
		ApiKey:       rawKey,
	}, requestID)
}

// List handles GET /users. An optional tenantId query parameter narrows the
// listing to one tenant's users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var filter auth.ListFilter
	if raw := r.URL.Query().Get("tenantId"); raw != "" {
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "tenantId must be a valid UUID", requestID)
			return
		}
		filter.TenantID = &tenantID
	}

	users, err := h.userRepo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Delete handles DELETE /users/{id} (soft-revoke).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	u, err := h.userRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to get user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke user", requestID)
		return
	}

	if u.IsSuperuser {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot revoke the superuser", requestID)
		return
	}

	if err := h.userRepo.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserRevoked) {
			// Revoking twice is not an error.
			response.NoContent(w)
			return
		}
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to revoke user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke user", requestID)
		return
	}

	response.NoContent(w)
}
