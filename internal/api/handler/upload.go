package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/upload"
	"github.com/daap14/headless/internal/validation"
)

// UploadService signs direct-to-bucket uploads.
type UploadService interface {
	PresignedPostPayload(ctx context.Context, in upload.FileInput) (*upload.Payload, error)
	PresignedPostPayloads(ctx context.Context, files []upload.FileInput) ([]upload.Payload, error)
}

type presignRequest struct {
	Data upload.FileInput `json:"data"`
}

type presignBatchRequest struct {
	Data json.RawMessage `json:"data"`
}

// UploadHandler handles the /files/presigned-post(s) endpoints.
type UploadHandler struct {
	uploads UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// PresignedPost handles POST /files/presigned-post.
func (h *UploadHandler) PresignedPost(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payload, err := h.uploads.PresignedPostPayload(r.Context(), req.Data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, payload, middleware.GetRequestID(r.Context()))
}

// PresignedPosts handles POST /files/presigned-posts.
func (h *UploadHandler) PresignedPosts(w http.ResponseWriter, r *http.Request) {
	var req presignBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// A missing or non-array "data" reaches the service as nil.
	var files []upload.FileInput
	if raw := bytes.TrimSpace(req.Data); len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &files); err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
			return
		}
	}

	payloads, err := h.uploads.PresignedPostPayloads(r.Context(), files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessList(w, http.StatusOK, payloads, len(payloads), middleware.GetRequestID(r.Context()))
}

func (h *UploadHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	if uerr, ok := upload.AsError(err); ok {
		response.Err(w, http.StatusBadRequest, uerr.Code, uerr.Message, requestID)
		return
	}
	if fields, ok := validation.Fields(err); ok {
		response.ValidationErr(w, fields, requestID)
		return
	}
	slog.Error("failed to presign upload", "error", err, "requestId", requestID)
	response.Err(w, http.StatusInternalServerError, "UPLOAD_PRESIGN_ERROR", "Failed to create presigned upload", requestID)
}
