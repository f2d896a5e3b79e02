package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
)

const healthCheckTimeout = 2 * time.Second

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker checks that the upload bucket is reachable.
type BucketChecker interface {
	CheckBucket(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	bucket  BucketChecker
	version string
}

// NewHealthHandler creates a new HealthHandler. bucket may be nil when
// uploads are not configured.
func NewHealthHandler(db DBPinger, bucket BucketChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, bucket: bucket, version: version}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type storageStatus struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
	Storage  storageStatus  `json:"storage"`
}

// ServeHTTP handles the health check request. Any failed dependency reports
// "degraded" with a 200 status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	data := healthData{Status: "healthy", Version: h.version}

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		data.Status = "degraded"
	} else {
		data.Database.Connected = true
	}

	if h.bucket != nil {
		data.Storage.Configured = true
		if err := h.bucket.CheckBucket(ctx); err != nil {
			slog.Warn("health check: upload bucket unreachable", "error", err)
			data.Status = "degraded"
		} else {
			data.Storage.Connected = true
		}
	}

	response.Success(w, http.StatusOK, data, requestID)
}
