package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daap14/headless/internal/api/handler"
	"github.com/daap14/headless/internal/environment"
)

// --- Mock Alias Service ---

type mockAliasService struct {
	getFn    func(ctx context.Context, id string) (*environment.Alias, error)
	createFn func(ctx context.Context, in environment.CreateAliasInput, by environment.CreatedBy) (*environment.Alias, error)
	updateFn func(ctx context.Context, id string, in environment.UpdateAliasInput, current *environment.Alias) (*environment.Alias, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockAliasService) Get(ctx context.Context, id string) (*environment.Alias, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAliasService) List(context.Context) ([]environment.Alias, error) { return nil, nil }

func (m *mockAliasService) Create(ctx context.Context, in environment.CreateAliasInput, by environment.CreatedBy) (*environment.Alias, error) {
	return m.createFn(ctx, in, by)
}

func (m *mockAliasService) Update(ctx context.Context, id string, in environment.UpdateAliasInput, current *environment.Alias) (*environment.Alias, error) {
	return m.updateFn(ctx, id, in, current)
}

func (m *mockAliasService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock Installer ---

type mockInstaller struct {
	installed bool
	installFn func(ctx context.Context, by environment.CreatedBy) (*environment.Environment, *environment.Alias, error)
}

func (m *mockInstaller) IsInstalled(context.Context) (bool, error) { return m.installed, nil }

func (m *mockInstaller) Install(ctx context.Context, by environment.CreatedBy) (*environment.Environment, *environment.Alias, error) {
	return m.installFn(ctx, by)
}

// ===== Aliases =====

func TestAliasCreate_SlugConflict(t *testing.T) {
	t.Parallel()

	svc := &mockAliasService{createFn: func(context.Context, environment.CreateAliasInput, environment.CreatedBy) (*environment.Alias, error) {
		return nil, &environment.SlugConflictError{Kind: "environment alias", Slug: "live"}
	}}
	h := handler.NewAliasHandler(svc)

	req, w := makeChiRequest(http.MethodPost, "/cms/environment-aliases", []byte(`{"name":"Live","environment":"env-1"}`), nil)
	h.Create(w, withEditor(req))

	assert.Equal(t, http.StatusConflict, w.Code)
	errObj := errorOf(t, w)
	assert.Equal(t, "SLUG_EXISTS", errObj["code"])
	assert.Equal(t, `environment alias with slug "live" already exists`, errObj["message"])
}

func TestAliasUpdate_PassesCurrent(t *testing.T) {
	t.Parallel()

	current := &environment.Alias{ID: "alias-1", Name: "Live", Environment: environment.Target{ID: "env-1"}}
	svc := &mockAliasService{
		getFn: func(context.Context, string) (*environment.Alias, error) { return current, nil },
		updateFn: func(_ context.Context, id string, in environment.UpdateAliasInput, got *environment.Alias) (*environment.Alias, error) {
			assert.Same(t, current, got)
			updated := *got
			updated.Environment = environment.Target{ID: *in.Environment}
			return &updated, nil
		},
	}
	h := handler.NewAliasHandler(svc)

	req, w := makeChiRequest(http.MethodPatch, "/cms/environment-aliases/alias-1", []byte(`{"environment":"env-2"}`), map[string]string{"id": "alias-1"})
	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "env-2", data["environment"].(map[string]interface{})["id"])
}

func TestAliasDelete_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockAliasService{deleteFn: func(context.Context, string) error { return environment.ErrAliasNotFound }}
	h := handler.NewAliasHandler(svc)

	req, w := makeChiRequest(http.MethodDelete, "/cms/environment-aliases/x", nil, map[string]string{"id": "x"})
	h.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Environment alias not found", errorOf(t, w)["message"])
}

// ===== Install =====

func TestInstallStatus(t *testing.T) {
	t.Parallel()

	h := handler.NewInstallHandler(&mockInstaller{installed: true})

	req, w := makeChiRequest(http.MethodGet, "/cms/install", nil, nil)
	h.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, parseEnvelope(t, w)["data"].(map[string]interface{})["installed"])
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	t.Parallel()

	h := handler.NewInstallHandler(&mockInstaller{installFn: func(context.Context, environment.CreatedBy) (*environment.Environment, *environment.Alias, error) {
		return nil, nil, environment.ErrAlreadyInstalled
	}})

	req, w := makeChiRequest(http.MethodPost, "/cms/install", nil, nil)
	h.Install(w, withEditor(req))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_INSTALLED", errorOf(t, w)["code"])
}

func TestInstall_Success(t *testing.T) {
	t.Parallel()

	h := handler.NewInstallHandler(&mockInstaller{installFn: func(_ context.Context, by environment.CreatedBy) (*environment.Environment, *environment.Alias, error) {
		assert.Equal(t, "Jane", by.DisplayName)
		return &environment.Environment{ID: "env-1", Name: "Production"}, &environment.Alias{ID: "alias-1", Environment: environment.Target{ID: "env-1"}}, nil
	}})

	req, w := makeChiRequest(http.MethodPost, "/cms/install", nil, nil)
	h.Install(w, withEditor(req))

	assert.Equal(t, http.StatusCreated, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "env-1", data["environment"].(map[string]interface{})["id"])
	assert.Equal(t, "alias-1", data["alias"].(map[string]interface{})["id"])
}
