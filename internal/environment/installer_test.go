package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/headless/internal/environment"
)

func TestInstall_EmptyScope(t *testing.T) {
	f := newFixture(t)
	installer := environment.NewInstaller(f.envs, f.aliases)
	ctx := scopedCtx()

	installed, err := installer.IsInstalled(ctx)
	require.NoError(t, err)
	assert.False(t, installed)

	env, alias, err := installer.Install(ctx, creator)
	require.NoError(t, err)

	assert.Equal(t, "Production", env.Name)
	assert.Equal(t, "production", env.Slug)
	assert.Nil(t, env.CreatedFrom)
	assert.Equal(t, "production", alias.Slug)
	assert.Equal(t, env.ID, alias.Environment.ID)
	assert.Empty(t, f.data.copies)

	installed, err = installer.IsInstalled(ctx)
	require.NoError(t, err)
	assert.True(t, installed)
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	f := newFixture(t, envItem(t, prodEnv()))
	installer := environment.NewInstaller(f.envs, f.aliases)

	_, _, err := installer.Install(scopedCtx(), creator)

	assert.ErrorIs(t, err, environment.ErrAlreadyInstalled)
	assert.Empty(t, f.store.Writes())
}

func TestInstall_ThenCloneAndProtect(t *testing.T) {
	f := newFixture(t)
	installer := environment.NewInstaller(f.envs, f.aliases)
	ctx := scopedCtx()

	prod, _, err := installer.Install(ctx, creator)
	require.NoError(t, err)

	staging, err := f.envs.Create(ctx, environment.CreateInput{Name: "Staging", CreatedFrom: prod.ID}, creator, false)
	require.NoError(t, err)
	require.Len(t, f.data.copies, 1)
	assert.Equal(t, environment.CopyInput{CopyFrom: prod.ID, CopyTo: staging.ID}, f.data.copies[0])

	assert.ErrorIs(t, f.envs.Delete(ctx, prod.ID), environment.ErrLinkedToAliases)
	assert.NoError(t, f.envs.Delete(ctx, staging.ID))
}
