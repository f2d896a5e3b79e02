package environment

import (
	"context"
	"fmt"

	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/tenancy"
)

// partition scopes reads and writes of one record type to the partition key
// derived from the request scope. The record id is the sort key.
type partition struct {
	store docstore.Store
	pk    func(tenancy.Scope) string
	typ   string
}

func (p partition) key(ctx context.Context) (string, error) {
	scope, err := tenancy.Require(ctx)
	if err != nil {
		return "", err
	}
	return p.pk(scope), nil
}

func (p partition) item(pk, id string, v any) (docstore.Item, error) {
	return docstore.NewItem(pk, id, p.typ, v)
}

// get returns the record stored under id, or nil when there is none.
func get[T any](ctx context.Context, p partition, id string) (*T, error) {
	pk, err := p.key(ctx)
	if err != nil {
		return nil, err
	}
	items, err := p.store.Read(ctx, docstore.Query{PK: pk, SK: id}, 1)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", p.typ, id, err)
	}
	records, err := docstore.Decode[T](items)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// list returns every record of the partition. It always reads the store.
func list[T any](ctx context.Context, p partition) ([]T, error) {
	pk, err := p.key(ctx)
	if err != nil {
		return nil, err
	}
	items, err := p.store.Read(ctx, docstore.Query{PK: pk, SKGreaterThan: " "}, 0)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", p.typ, err)
	}
	return docstore.Decode[T](items)
}
