package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/settings"
	"github.com/daap14/headless/internal/validation"
)

// SettingsService reads and updates the file manager settings of a tenant.
type SettingsService interface {
	Get(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, in settings.UpdateInput) (settings.Settings, error)
}

// SettingsHandler handles the /files/settings endpoints.
type SettingsHandler struct {
	settings SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: svc}
}

// Get handles GET /files/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	st, err := h.settings.Get(r.Context())
	if err != nil {
		slog.Error("failed to get file manager settings", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "GET_FILE_SETTINGS_ERROR", err.Error(), requestID)
		return
	}

	response.Success(w, http.StatusOK, st, requestID)
}

// Update handles PATCH /files/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var in settings.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	st, err := h.settings.Update(r.Context(), in)
	if err != nil {
		if fields, ok := validation.Fields(err); ok {
			response.ValidationErr(w, fields, requestID)
			return
		}
		slog.Error("failed to update file manager settings", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "UPDATE_FILE_SETTINGS_ERROR", err.Error(), requestID)
		return
	}

	response.Success(w, http.StatusOK, st, requestID)
}
