package handler

import (
	"context"
	"net/http"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/environment"
)

// InstallService bootstraps a tenant/locale scope.
type InstallService interface {
	IsInstalled(ctx context.Context) (bool, error)
	Install(ctx context.Context, createdBy environment.CreatedBy) (*environment.Environment, *environment.Alias, error)
}

type installStatus struct {
	Installed bool `json:"installed"`
}

type installResult struct {
	Environment *environment.Environment `json:"environment"`
	Alias       *environment.Alias       `json:"alias"`
}

// InstallHandler handles the /cms/install endpoints.
type InstallHandler struct {
	installer InstallService
}

// NewInstallHandler creates a new InstallHandler.
func NewInstallHandler(installer InstallService) *InstallHandler {
	return &InstallHandler{installer: installer}
}

// Status handles GET /cms/install.
func (h *InstallHandler) Status(w http.ResponseWriter, r *http.Request) {
	installed, err := h.installer.IsInstalled(r.Context())
	if err != nil {
		writeCMSError(w, r, err, "Failed to check installation")
		return
	}

	response.Success(w, http.StatusOK, installStatus{Installed: installed}, middleware.GetRequestID(r.Context()))
}

// Install handles POST /cms/install.
func (h *InstallHandler) Install(w http.ResponseWriter, r *http.Request) {
	env, alias, err := h.installer.Install(r.Context(), createdBy(r))
	if err != nil {
		writeCMSError(w, r, err, "Failed to install")
		return
	}

	response.Success(w, http.StatusCreated, installResult{Environment: env, Alias: alias}, middleware.GetRequestID(r.Context()))
}
