// Package docstore is a partition/sort key document store. Every record is a
// JSON document addressed by (PK, SK); a partition groups the records of one
// scope so they can be listed together.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when updating or deleting a key that does not exist.
var ErrNotFound = errors.New("document not found")

// ErrConflict is returned when creating a key that already exists.
var ErrConflict = errors.New("document already exists")

// Key addresses a single document.
type Key struct {
	PK string
	SK string
}

// Item is a stored document.
type Item struct {
	PK   string
	SK   string
	Type string
	Data json.RawMessage
}

// Key returns the address of the item.
func (i Item) Key() Key {
	return Key{PK: i.PK, SK: i.SK}
}

// Query selects documents. Exactly one of PK and PKPrefix must be set;
// SK and SKGreaterThan are optional and mutually exclusive.
type Query struct {
	PK            string
	PKPrefix      string
	SK            string
	SKGreaterThan string
}

// Validate reports whether the query is well formed.
func (q Query) Validate() error {
	if (q.PK == "") == (q.PKPrefix == "") {
		return errors.New("query needs exactly one of PK or PKPrefix")
	}
	if q.SK != "" && q.SKGreaterThan != "" {
		return errors.New("query cannot set both SK and SKGreaterThan")
	}
	return nil
}

// Store reads and writes documents.
type Store interface {
	// Read returns the documents matching q ordered by (PK, SK).
	// A limit <= 0 returns every match.
	Read(ctx context.Context, q Query, limit int) ([]Item, error)
	Create(ctx context.Context, item Item) error
	// Update replaces the type and data of an existing document.
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, key Key) error
	// Batch starts a set of writes that Execute applies atomically.
	Batch() Batch
}

// Batch queues writes to be applied together in one transaction.
type Batch interface {
	Create(item Item)
	Update(item Item)
	Delete(key Key)
	Len() int
	Execute(ctx context.Context) error
}

// NewItem marshals v into an Item addressed by pk/sk.
func NewItem(pk, sk, typ string, v any) (Item, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Item{}, fmt.Errorf("encoding %s document: %w", typ, err)
	}
	return Item{PK: pk, SK: sk, Type: typ, Data: data}, nil
}

// Decode unmarshals the data of every item into a T.
func Decode[T any](items []Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		var v T
		if err := json.Unmarshal(it.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding document %s/%s: %w", it.PK, it.SK, err)
		}
		out = append(out, v)
	}
	return out, nil
}
