// Package environment manages CMS environments and the aliases pointing at
// them within a tenant/locale scope.
package environment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/keyspace"
	"github.com/daap14/headless/internal/slug"
	"github.com/daap14/headless/internal/validation"
)

// AliasLister lists the aliases of the caller's scope.
type AliasLister interface {
	List(ctx context.Context) ([]Alias, error)
}

// CopyInput names the source and destination of a content copy.
type CopyInput struct {
	CopyFrom string
	CopyTo   string
}

// DeleteInput names the environment whose content is removed.
type DeleteInput struct {
	Environment string
}

// DataManager moves environment content in bulk.
type DataManager interface {
	CopyEnvironment(ctx context.Context, in CopyInput) error
	DeleteEnvironment(ctx context.Context, in DeleteInput) error
}

// Option configures a Manager or AliasManager.
type Option func(*options)

type options struct {
	newID func() string
	now   func() time.Time
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithClock overrides the time source used for createdOn/changedOn.
func WithClock(fn func() time.Time) Option {
	return func(o *options) { o.now = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		newID: NewID,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewID returns a UUIDv7 string. v7 ids sort by creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Manager enforces the environment invariants of a scope and orchestrates
// alias refreshes and content copies around environment writes.
type Manager struct {
	envs    partition
	aliases partition
	lister  AliasLister
	data    DataManager
	opts    options
}

// NewManager creates a Manager.
func NewManager(store docstore.Store, aliases AliasLister, data DataManager, opts ...Option) *Manager {
	return &Manager{
		envs:    partition{store: store, pk: keyspace.EnvironmentPK, typ: EnvironmentType},
		aliases: partition{store: store, pk: keyspace.EnvironmentAliasPK, typ: AliasType},
		lister:  aliases,
		data:    data,
		opts:    buildOptions(opts),
	}
}

// Get returns the environment with the given id, or nil when it does not exist.
func (m *Manager) Get(ctx context.Context, id string) (*Environment, error) {
	return get[Environment](ctx, m.envs, id)
}

// List returns every environment of the scope in storage order.
func (m *Manager) List(ctx context.Context) ([]Environment, error) {
	return list[Environment](ctx, m.envs)
}

type createPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	CreatedFrom string `json:"createdFrom" validate:"required_unless=Initial true,max=255"`
	Initial     bool   `json:"-"`
}

// Create validates and stores a new environment. Unless initial is set, the
// environment must be cloned from an existing one, whose content is copied
// before Create returns. A copy failure leaves the new row in place.
func (m *Manager) Create(ctx context.Context, in CreateInput, createdBy CreatedBy, initial bool) (*Environment, error) {
	s := in.Slug
	if s == "" {
		s = in.Name
	}
	envSlug := slug.Make(s)

	payload := createPayload{
		Name:        in.Name,
		Slug:        envSlug,
		Description: in.Description,
		CreatedFrom: in.CreatedFrom,
		Initial:     initial,
	}
	if err := validation.NewError(validation.Struct(payload)); err != nil {
		return nil, err
	}

	pk, err := m.envs.key(ctx)
	if err != nil {
		return nil, err
	}

	id := m.opts.newID()

	existing, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	var source *Environment
	for i := range existing {
		if existing[i].ID == in.CreatedFrom {
			source = &existing[i]
			break
		}
	}

	if !initial && source == nil {
		if len(existing) == 0 {
			return nil, ErrNoEnvironments
		}
		return nil, &SourceNotFoundError{CreatedFrom: in.CreatedFrom}
	}

	for _, e := range existing {
		if e.Slug == envSlug {
			return nil, &SlugConflictError{Slug: envSlug}
		}
	}

	env := &Environment{
		ID:          id,
		Name:        in.Name,
		Slug:        envSlug,
		Description: in.Description,
		CreatedOn:   m.opts.now(),
		CreatedBy:   createdBy,
	}
	if source != nil {
		env.CreatedFrom = &Ref{ID: source.ID, Name: source.Name, Slug: source.Slug}
	}

	item, err := m.envs.item(pk, id, env)
	if err != nil {
		return nil, err
	}
	if err := m.envs.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("storing environment: %w", err)
	}

	if source == nil {
		return env, nil
	}

	if err := m.data.CopyEnvironment(ctx, CopyInput{CopyFrom: source.ID, CopyTo: id}); err != nil {
		return nil, fmt.Errorf("copying content from environment %s to %s: %w", source.ID, id, err)
	}

	return env, nil
}

// updatePayload rejects an explicit empty name so an update cannot leave an
// environment nameless.
type updatePayload struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,max=255"`
}

// Update applies the fields of in that differ from current. It returns the
// changed fields only; an empty Changes means nothing was written. The
// environment row and the changedOn of every alias pointing at it are written
// in one batch. The alias set is read before the batch, so an alias created
// concurrently may miss the refresh. An alias deleted in between is dropped
// from a single retry of the batch.
func (m *Manager) Update(ctx context.Context, id string, in UpdateInput, current *Environment) (Changes, error) {
	if current == nil {
		return Changes{}, ErrEnvironmentNotFound
	}

	payload := updatePayload{Name: in.Name, Description: in.Description}
	if v := firstNonEmpty(in.Slug, in.Name); v != "" {
		s := slug.Make(v)
		payload.Slug = &s
	}
	if err := validation.NewError(validation.Struct(payload)); err != nil {
		return Changes{}, err
	}

	var changes Changes
	if payload.Name != nil && *payload.Name != current.Name {
		changes.Name = payload.Name
	}
	if payload.Slug != nil && *payload.Slug != current.Slug {
		changes.Slug = payload.Slug
	}
	if payload.Description != nil && *payload.Description != current.Description {
		changes.Description = payload.Description
	}
	if changes.Empty() {
		return Changes{}, nil
	}

	pk, err := m.envs.key(ctx)
	if err != nil {
		return Changes{}, err
	}
	aliasPK, err := m.aliases.key(ctx)
	if err != nil {
		return Changes{}, err
	}

	if changes.Slug != nil {
		existing, err := m.List(ctx)
		if err != nil {
			return Changes{}, err
		}
		for _, e := range existing {
			if e.ID != id && e.Slug == *changes.Slug {
				return Changes{}, &SlugConflictError{Slug: *changes.Slug}
			}
		}
	}

	now := m.opts.now()
	changes.ChangedOn = &now

	updated := changes.Apply(*current)
	updated.ID = id

	aliases, err := m.lister.List(ctx)
	if err != nil {
		return Changes{}, fmt.Errorf("listing environment aliases: %w", err)
	}

	err = m.writeUpdate(ctx, pk, aliasPK, updated, aliases, now)
	if errors.Is(err, docstore.ErrNotFound) {
		// A listed alias was deleted before the batch ran. Retry once with
		// the aliases that are stored now; a missing environment row fails again.
		stored, lerr := list[Alias](ctx, m.aliases)
		if lerr != nil {
			return Changes{}, fmt.Errorf("listing environment aliases: %w", lerr)
		}
		err = m.writeUpdate(ctx, pk, aliasPK, updated, stored, now)
	}
	if err != nil {
		return Changes{}, fmt.Errorf("updating environment: %w", err)
	}

	return changes, nil
}

func (m *Manager) writeUpdate(ctx context.Context, pk, aliasPK string, env Environment, aliases []Alias, now time.Time) error {
	batch := m.envs.store.Batch()
	envItem, err := m.envs.item(pk, env.ID, env)
	if err != nil {
		return err
	}
	batch.Update(envItem)

	for _, a := range aliases {
		if a.Environment.ID != env.ID {
			continue
		}
		a.ChangedOn = &now
		aliasItem, err := m.aliases.item(aliasPK, a.ID, a)
		if err != nil {
			return err
		}
		batch.Update(aliasItem)
	}

	return batch.Execute(ctx)
}

// Delete removes the environment and then its content. Deletion is refused
// while any alias points at the environment. A content cleanup failure is
// returned after the row is already gone.
func (m *Manager) Delete(ctx context.Context, id string) error {
	pk, err := m.envs.key(ctx)
	if err != nil {
		return err
	}

	aliases, err := m.lister.List(ctx)
	if err != nil {
		return fmt.Errorf("listing environment aliases: %w", err)
	}
	var linked []string
	for _, a := range aliases {
		if a.Environment.ID == id {
			linked = append(linked, a.Name)
		}
	}
	if len(linked) > 0 {
		return &AliasConflictError{Aliases: linked}
	}

	if err := m.envs.store.Delete(ctx, docstore.Key{PK: pk, SK: id}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrEnvironmentNotFound
		}
		return fmt.Errorf("deleting environment: %w", err)
	}

	if err := m.data.DeleteEnvironment(ctx, DeleteInput{Environment: id}); err != nil {
		return fmt.Errorf("deleting content of environment %s: %w", id, err)
	}
	return nil
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
