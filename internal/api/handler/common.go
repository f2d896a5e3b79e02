package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/environment"
	"github.com/daap14/headless/internal/validation"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v. It writes the 400 response and
// returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// createdBy describes the authenticated caller for record audit fields.
func createdBy(r *http.Request) environment.CreatedBy {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		return environment.CreatedBy{}
	}
	return environment.CreatedBy{ID: identity.UserID.String(), DisplayName: identity.UserName}
}

// writeCMSError maps environment and validation errors to API responses.
// Anything unrecognised is logged and reported as internalMsg.
func writeCMSError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	requestID := middleware.GetRequestID(r.Context())

	if fields, ok := validation.Fields(err); ok {
		response.ValidationErr(w, fields, requestID)
		return
	}

	var aliasConflict *environment.AliasConflictError
	switch {
	case errors.As(err, &aliasConflict):
		response.ErrWithDetails(w, http.StatusConflict, "ENVIRONMENT_HAS_ALIASES", err.Error(),
			map[string][]string{"aliases": aliasConflict.Aliases}, requestID)
	case errors.Is(err, environment.ErrNoBaseEnvironment):
		response.Err(w, http.StatusBadRequest, "BASE_ENVIRONMENT_REQUIRED", err.Error(), requestID)
	case errors.Is(err, environment.ErrSlugConflict):
		response.Err(w, http.StatusConflict, "SLUG_EXISTS", err.Error(), requestID)
	case errors.Is(err, environment.ErrEnvironmentNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Environment not found", requestID)
	case errors.Is(err, environment.ErrAliasNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Environment alias not found", requestID)
	case errors.Is(err, environment.ErrAlreadyInstalled):
		response.Err(w, http.StatusConflict, "ALREADY_INSTALLED", err.Error(), requestID)
	default:
		slog.Error(internalMsg, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", internalMsg, requestID)
	}
}
