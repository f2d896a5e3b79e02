package environment

import (
	"context"
	"fmt"
)

// Name of the environment and alias created on install.
const initialName = "Production"

// Installer bootstraps an empty scope with its initial environment and alias.
type Installer struct {
	envs    *Manager
	aliases *AliasManager
}

// NewInstaller creates an Installer.
func NewInstaller(envs *Manager, aliases *AliasManager) *Installer {
	return &Installer{envs: envs, aliases: aliases}
}

// IsInstalled reports whether the scope has at least one environment.
func (i *Installer) IsInstalled(ctx context.Context) (bool, error) {
	existing, err := i.envs.List(ctx)
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}

// Install creates the initial environment and an alias pointing at it.
// Returns ErrAlreadyInstalled when the scope already has environments.
func (i *Installer) Install(ctx context.Context, createdBy CreatedBy) (*Environment, *Alias, error) {
	installed, err := i.IsInstalled(ctx)
	if err != nil {
		return nil, nil, err
	}
	if installed {
		return nil, nil, ErrAlreadyInstalled
	}

	env, err := i.envs.Create(ctx, CreateInput{
		Name:        initialName,
		Description: "This is the production environment",
	}, createdBy, true)
	if err != nil {
		return nil, nil, fmt.Errorf("creating initial environment: %w", err)
	}

	alias, err := i.aliases.Create(ctx, CreateAliasInput{
		Name:        initialName,
		Description: "This is the production environment alias",
		Environment: env.ID,
	}, createdBy)
	if err != nil {
		return env, nil, fmt.Errorf("creating initial environment alias: %w", err)
	}

	return env, alias, nil
}
