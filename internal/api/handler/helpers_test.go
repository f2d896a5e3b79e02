package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/auth"
)

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, httptest.NewRecorder()
}

func withEditor(req *http.Request) *http.Request {
	name := "acme"
	tid := uuid.New()
	return req.WithContext(middleware.WithIdentity(req.Context(), &auth.Identity{
		UserID:     uuid.MustParse("0b9c8f8e-7c1e-4c59-9d36-8a4b1f7f0b11"),
		UserName:   "Jane",
		TenantID:   &tid,
		TenantName: &name,
	}))
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "failed to parse response body")
	return env
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	return parseEnvelope(t, w)["error"].(map[string]interface{})
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
