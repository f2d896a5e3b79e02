package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/headless/internal/docstore/docstoretest"
	"github.com/daap14/headless/internal/settings"
	"github.com/daap14/headless/internal/tenancy"
	"github.com/daap14/headless/internal/validation"
)

func scoped(tenant string) context.Context {
	return tenancy.WithScope(context.Background(), tenancy.Scope{Tenant: tenant, Locale: "en-US"})
}

func i64(v int64) *int64  { return &v }
func str(v string) *string { return &v }

func TestGet_DefaultsWhenUnset(t *testing.T) {
	svc := settings.NewService(docstoretest.New())

	got, err := svc.Get(scoped("root"))

	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
	assert.Equal(t, int64(26214401), got.UploadMaxFileSize)
	assert.Equal(t, "/files/", got.SrcPrefix)
}

func TestUpdate_CreatesThenUpdates(t *testing.T) {
	store := docstoretest.New()
	svc := settings.NewService(store)
	ctx := scoped("root")

	first, err := svc.Update(ctx, settings.UpdateInput{UploadMaxFileSize: i64(1024)})
	require.NoError(t, err)
	assert.Equal(t, int64(1024), first.UploadMaxFileSize)
	assert.Equal(t, "/files/", first.SrcPrefix)

	second, err := svc.Update(ctx, settings.UpdateInput{SrcPrefix: str("https://cdn.example.com/")})
	require.NoError(t, err)
	assert.Equal(t, int64(1024), second.UploadMaxFileSize, "unset fields keep their stored value")
	assert.Equal(t, "https://cdn.example.com/", second.SrcPrefix)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	writes := store.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, "create", writes[0].Op)
	assert.Equal(t, "update", writes[1].Op)
}

func TestUpdate_IsTenantScoped(t *testing.T) {
	svc := settings.NewService(docstoretest.New())

	_, err := svc.Update(scoped("acme"), settings.UpdateInput{UploadMinFileSize: i64(10)})
	require.NoError(t, err)

	other, err := svc.Get(scoped("root"))
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), other)
}

func TestUpdate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input settings.UpdateInput
		field string
	}{
		{name: "negative min", input: settings.UpdateInput{UploadMinFileSize: i64(-1)}, field: "uploadMinFileSize"},
		{name: "max below min", input: settings.UpdateInput{UploadMinFileSize: i64(100), UploadMaxFileSize: i64(10)}, field: "uploadMaxFileSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := docstoretest.New()
			svc := settings.NewService(store)

			_, err := svc.Update(scoped("root"), tt.input)

			fields, ok := validation.Fields(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.field, fields[0].Field)
			assert.Empty(t, store.Writes())
		})
	}
}

func TestGet_MissingScope(t *testing.T) {
	svc := settings.NewService(docstoretest.New())

	_, err := svc.Get(context.Background())

	assert.ErrorIs(t, err, tenancy.ErrMissingScope)
}
