package environment

import (
	"context"
	"errors"
	"fmt"

	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/keyspace"
	"github.com/daap14/headless/internal/slug"
	"github.com/daap14/headless/internal/validation"
)

// AliasManager stores the aliases of a scope. It satisfies AliasLister.
type AliasManager struct {
	aliases partition
	envs    partition
	opts    options
}

// NewAliasManager creates an AliasManager.
func NewAliasManager(store docstore.Store, opts ...Option) *AliasManager {
	return &AliasManager{
		aliases: partition{store: store, pk: keyspace.EnvironmentAliasPK, typ: AliasType},
		envs:    partition{store: store, pk: keyspace.EnvironmentPK, typ: EnvironmentType},
		opts:    buildOptions(opts),
	}
}

// Get returns the alias with the given id, or nil when it does not exist.
func (a *AliasManager) Get(ctx context.Context, id string) (*Alias, error) {
	return get[Alias](ctx, a.aliases, id)
}

// List returns every alias of the scope.
func (a *AliasManager) List(ctx context.Context) ([]Alias, error) {
	return list[Alias](ctx, a.aliases)
}

type aliasPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	Environment string `json:"environment" validate:"required,max=255"`
}

// Create stores a new alias pointing at an existing environment.
func (a *AliasManager) Create(ctx context.Context, in CreateAliasInput, createdBy CreatedBy) (*Alias, error) {
	s := in.Slug
	if s == "" {
		s = in.Name
	}
	payload := aliasPayload{
		Name:        in.Name,
		Slug:        slug.Make(s),
		Description: in.Description,
		Environment: in.Environment,
	}
	if err := validation.NewError(validation.Struct(payload)); err != nil {
		return nil, err
	}

	pk, err := a.aliases.key(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.requireEnvironment(ctx, payload.Environment); err != nil {
		return nil, err
	}
	if err := a.requireUniqueSlug(ctx, "", payload.Slug); err != nil {
		return nil, err
	}

	alias := &Alias{
		ID:          a.opts.newID(),
		Name:        payload.Name,
		Slug:        payload.Slug,
		Description: payload.Description,
		Environment: Target{ID: payload.Environment},
		CreatedOn:   a.opts.now(),
		CreatedBy:   createdBy,
	}

	item, err := a.aliases.item(pk, alias.ID, alias)
	if err != nil {
		return nil, err
	}
	if err := a.aliases.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("storing environment alias: %w", err)
	}
	return alias, nil
}

type aliasUpdatePayload struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,max=255"`
	Environment *string `json:"environment" validate:"omitnil,min=1,max=255"`
}

// Update applies the fields of in that differ from current and returns the
// resulting alias. When nothing differs, current is returned unchanged and
// nothing is written.
func (a *AliasManager) Update(ctx context.Context, id string, in UpdateAliasInput, current *Alias) (*Alias, error) {
	if current == nil {
		return nil, ErrAliasNotFound
	}

	payload := aliasUpdatePayload{Name: in.Name, Description: in.Description, Environment: in.Environment}
	if v := firstNonEmpty(in.Slug, in.Name); v != "" {
		s := slug.Make(v)
		payload.Slug = &s
	}
	if err := validation.NewError(validation.Struct(payload)); err != nil {
		return nil, err
	}

	updated := *current
	updated.ID = id
	dirty := false
	if payload.Name != nil && *payload.Name != current.Name {
		updated.Name, dirty = *payload.Name, true
	}
	if payload.Slug != nil && *payload.Slug != current.Slug {
		if err := a.requireUniqueSlug(ctx, id, *payload.Slug); err != nil {
			return nil, err
		}
		updated.Slug, dirty = *payload.Slug, true
	}
	if payload.Description != nil && *payload.Description != current.Description {
		updated.Description, dirty = *payload.Description, true
	}
	if payload.Environment != nil && *payload.Environment != current.Environment.ID {
		if err := a.requireEnvironment(ctx, *payload.Environment); err != nil {
			return nil, err
		}
		updated.Environment, dirty = Target{ID: *payload.Environment}, true
	}
	if !dirty {
		return current, nil
	}

	pk, err := a.aliases.key(ctx)
	if err != nil {
		return nil, err
	}

	now := a.opts.now()
	updated.ChangedOn = &now

	item, err := a.aliases.item(pk, id, updated)
	if err != nil {
		return nil, err
	}
	if err := a.aliases.store.Update(ctx, item); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrAliasNotFound
		}
		return nil, fmt.Errorf("updating environment alias: %w", err)
	}
	return &updated, nil
}

// Delete removes the alias.
func (a *AliasManager) Delete(ctx context.Context, id string) error {
	pk, err := a.aliases.key(ctx)
	if err != nil {
		return err
	}
	if err := a.aliases.store.Delete(ctx, docstore.Key{PK: pk, SK: id}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrAliasNotFound
		}
		return fmt.Errorf("deleting environment alias: %w", err)
	}
	return nil
}

func (a *AliasManager) requireEnvironment(ctx context.Context, id string) error {
	env, err := get[Environment](ctx, a.envs, id)
	if err != nil {
		return err
	}
	if env == nil {
		return validation.NewError([]validation.FieldError{{
			Field:   "environment",
			Message: fmt.Sprintf("environment %q does not exist", id),
		}})
	}
	return nil
}

func (a *AliasManager) requireUniqueSlug(ctx context.Context, id, s string) error {
	existing, err := a.List(ctx)
	if err != nil {
		return err
	}
	for _, al := range existing {
		if al.ID != id && al.Slug == s {
			return &SlugConflictError{Kind: "environment alias", Slug: s}
		}
	}
	return nil
}
