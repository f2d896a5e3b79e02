package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/auth"
	"github.com/daap14/headless/internal/tenancy"
)

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, rawKey string) (*auth.Identity, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, rawKey string) (*auth.Identity, error) {
	return m.authenticateFn(ctx, rawKey)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env["error"].(map[string]interface{})
}

func tenantIdentity(name string) *auth.Identity {
	tid := uuid.New()
	return &auth.Identity{UserID: uuid.New(), UserName: "editor", TenantID: &tid, TenantName: &name}
}

func superIdentity() *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), UserName: "superuser", IsSuperuser: true}
}

// --- RequestID ---

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestID_ReusesClientHeader(t *testing.T) {
	h := middleware.RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "client-id", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.NotEqual(t, strings.Repeat("x", 500), w.Header().Get("X-Request-ID"))
}

// --- Recovery ---

func TestRecovery_HandlesPanic(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", parseErrorResponse(t, w)["code"])
}

func TestRecovery_ReraisesAbort(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

// --- Auth ---

func TestAuth_MissingKey(t *testing.T) {
	h := middleware.Auth(&mockAuthenticator{})(okHandler())
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "API key is required", parseErrorResponse(t, w)["message"])
}

func TestAuth_InvalidKey(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (*auth.Identity, error) {
		return nil, auth.ErrInvalidKey
	}}
	h := middleware.Auth(authn)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "hdls_bad")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or revoked API key", parseErrorResponse(t, w)["message"])
}

func TestAuth_BackendFailure(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (*auth.Identity, error) {
		return nil, errors.New("db down")
	}}
	h := middleware.Auth(authn)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "hdls_key")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth_StoresIdentity(t *testing.T) {
	want := tenantIdentity("acme")
	authn := &mockAuthenticator{authenticateFn: func(_ context.Context, rawKey string) (*auth.Identity, error) {
		assert.Equal(t, "hdls_good", rawKey)
		return want, nil
	}}
	var got *auth.Identity
	h := middleware.Auth(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.GetIdentity(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "hdls_good")

	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Same(t, want, got)
}

// --- RequireSuperuser ---

func TestRequireSuperuser(t *testing.T) {
	h := middleware.RequireSuperuser()(okHandler())

	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"tenant user", tenantIdentity("acme"), http.StatusForbidden},
		{"superuser", superIdentity(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.identity != nil {
				req = req.WithContext(middleware.WithIdentity(req.Context(), tt.identity))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// --- Scope ---

func serveScoped(t *testing.T, identity *auth.Identity, headers map[string]string) (*httptest.ResponseRecorder, tenancy.Scope) {
	t.Helper()
	var got tenancy.Scope
	h := middleware.Scope("root", "en-US")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := tenancy.Require(r.Context())
		require.NoError(t, err)
		got = s
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, got
}

func TestScope_TenantUserIgnoresHeader(t *testing.T) {
	w, s := serveScoped(t, tenantIdentity("acme"), map[string]string{"X-Tenant": "other", "X-Locale": "de-DE"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenancy.Scope{Tenant: "acme", Locale: "de-DE"}, s)
}

func TestScope_SuperuserDefaultsAndOverride(t *testing.T) {
	w, s := serveScoped(t, superIdentity(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenancy.Scope{Tenant: "root", Locale: "en-US"}, s)

	w, s = serveScoped(t, superIdentity(), map[string]string{"X-Tenant": "acme"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", s.Tenant)
}

func TestScope_RejectsMalformedHeaders(t *testing.T) {
	w, _ := serveScoped(t, superIdentity(), map[string]string{"X-Tenant": "a#b", "X-Locale": "en#US"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := parseErrorResponse(t, w)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Len(t, errObj["details"], 2)
}

func TestScope_RequiresIdentity(t *testing.T) {
	w, _ := serveScoped(t, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Metrics ---

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	m := middleware.NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/cms/environments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Exposition())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cms/environments/abc", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `headless_api_http_requests_total{method="GET",route="/cms/environments/{id}",status="404"} 1`)
	assert.NotContains(t, body, "/cms/environments/abc")
}
