// Package datamanager copies and removes the content rows owned by an
// environment.
package datamanager

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/environment"
	"github.com/daap14/headless/internal/keyspace"
	"github.com/daap14/headless/internal/tenancy"
)

// BatchSize is the number of writes sent per transaction.
const BatchSize = 25

// Manager implements environment.DataManager on a document store.
type Manager struct {
	store docstore.Store
}

// New creates a Manager.
func New(store docstore.Store) *Manager {
	return &Manager{store: store}
}

// CopyEnvironment duplicates every row under the source environment's content
// prefix into the destination environment. Batches already committed stay in
// place when a later batch fails.
func (m *Manager) CopyEnvironment(ctx context.Context, in environment.CopyInput) error {
	scope, err := tenancy.Require(ctx)
	if err != nil {
		return err
	}
	from := keyspace.ContentPrefix(scope, in.CopyFrom)
	to := keyspace.ContentPrefix(scope, in.CopyTo)

	items, err := m.store.Read(ctx, docstore.Query{PKPrefix: from}, 0)
	if err != nil {
		return fmt.Errorf("reading content of environment %s: %w", in.CopyFrom, err)
	}

	copied := 0
	for start := 0; start < len(items); start += BatchSize {
		end := min(start+BatchSize, len(items))
		batch := m.store.Batch()
		for _, it := range items[start:end] {
			it.PK = to + strings.TrimPrefix(it.PK, from)
			batch.Create(it)
		}
		if err := batch.Execute(ctx); err != nil {
			return fmt.Errorf("copying content to environment %s after %d rows: %w", in.CopyTo, copied, err)
		}
		copied += end - start
	}

	slog.Debug("environment content copied", "from", in.CopyFrom, "to", in.CopyTo, "rows", copied)
	return nil
}

// DeleteEnvironment removes every row under the environment's content prefix.
func (m *Manager) DeleteEnvironment(ctx context.Context, in environment.DeleteInput) error {
	scope, err := tenancy.Require(ctx)
	if err != nil {
		return err
	}
	prefix := keyspace.ContentPrefix(scope, in.Environment)

	items, err := m.store.Read(ctx, docstore.Query{PKPrefix: prefix}, 0)
	if err != nil {
		return fmt.Errorf("reading content of environment %s: %w", in.Environment, err)
	}

	deleted := 0
	for start := 0; start < len(items); start += BatchSize {
		end := min(start+BatchSize, len(items))
		batch := m.store.Batch()
		for _, it := range items[start:end] {
			batch.Delete(it.Key())
		}
		if err := batch.Execute(ctx); err != nil {
			return fmt.Errorf("deleting content of environment %s after %d rows: %w", in.Environment, deleted, err)
		}
		deleted += end - start
	}

	slog.Debug("environment content deleted", "environment", in.Environment, "rows", deleted)
	return nil
}
