// Package docstoretest provides an in-memory docstore.Store for tests.
package docstoretest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/daap14/headless/internal/docstore"
)

// Write records one mutation applied to the store.
type Write struct {
	Op  string // "create", "update" or "delete"
	Key docstore.Key
}

// Memory is a docstore.Store held in a map. The zero value is not usable;
// call New.
type Memory struct {
	mu     sync.Mutex
	items  map[docstore.Key]docstore.Item
	writes []Write

	// FailWrite, when set, is consulted before every write. A non-nil return
	// aborts the write (or the whole batch) with that error.
	FailWrite func(w Write) error
}

// New returns an empty Memory store seeded with the given items.
func New(items ...docstore.Item) *Memory {
	m := &Memory{items: make(map[docstore.Key]docstore.Item)}
	for _, it := range items {
		m.items[it.Key()] = it
	}
	return m
}

// Writes returns every successful write in the order it was applied.
func (m *Memory) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Write(nil), m.writes...)
}

// Items returns a snapshot of every stored item ordered by key.
func (m *Memory) Items() []docstore.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(docstore.Item) bool { return true })
}

// Get returns the item stored under key.
func (m *Memory) Get(key docstore.Key) (docstore.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	return it, ok
}

func (m *Memory) Read(_ context.Context, q docstore.Query, limit int) ([]docstore.Item, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.sorted(func(it docstore.Item) bool {
		if q.PK != "" && it.PK != q.PK {
			return false
		}
		if q.PKPrefix != "" && !strings.HasPrefix(it.PK, q.PKPrefix) {
			return false
		}
		if q.SK != "" && it.SK != q.SK {
			return false
		}
		if q.SKGreaterThan != "" && it.SK <= q.SKGreaterThan {
			return false
		}
		return true
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Create(_ context.Context, item docstore.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply([]pending{{Write{"create", item.Key()}, item}})
}

func (m *Memory) Update(_ context.Context, item docstore.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply([]pending{{Write{"update", item.Key()}, item}})
}

func (m *Memory) Delete(_ context.Context, key docstore.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply([]pending{{Write{"delete", key}, docstore.Item{}}})
}

func (m *Memory) Batch() docstore.Batch {
	return &memoryBatch{store: m}
}

type pending struct {
	write Write
	item  docstore.Item
}

// apply checks every write against a scratch view of the store before
// committing any of them. Callers hold m.mu.
func (m *Memory) apply(ops []pending) error {
	exists := make(map[docstore.Key]bool)
	has := func(k docstore.Key) bool {
		if v, ok := exists[k]; ok {
			return v
		}
		_, ok := m.items[k]
		return ok
	}
	for _, op := range ops {
		if m.FailWrite != nil {
			if err := m.FailWrite(op.write); err != nil {
				return err
			}
		}
		k := op.write.Key
		switch op.write.Op {
		case "create":
			if has(k) {
				return docstore.ErrConflict
			}
			exists[k] = true
		case "update":
			if !has(k) {
				return fmt.Errorf("update %s/%s: %w", k.PK, k.SK, docstore.ErrNotFound)
			}
		case "delete":
			if !has(k) {
				return fmt.Errorf("delete %s/%s: %w", k.PK, k.SK, docstore.ErrNotFound)
			}
			exists[k] = false
		}
	}
	for _, op := range ops {
		if op.write.Op == "delete" {
			delete(m.items, op.write.Key)
		} else {
			m.items[op.write.Key] = op.item
		}
		m.writes = append(m.writes, op.write)
	}
	return nil
}

func (m *Memory) sorted(keep func(docstore.Item) bool) []docstore.Item {
	out := make([]docstore.Item, 0, len(m.items))
	for _, it := range m.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PK != out[j].PK {
			return out[i].PK < out[j].PK
		}
		return out[i].SK < out[j].SK
	})
	return out
}

type memoryBatch struct {
	store *Memory
	ops   []pending
}

func (b *memoryBatch) Create(item docstore.Item) {
	b.ops = append(b.ops, pending{Write{"create", item.Key()}, item})
}

func (b *memoryBatch) Update(item docstore.Item) {
	b.ops = append(b.ops, pending{Write{"update", item.Key()}, item})
}

func (b *memoryBatch) Delete(key docstore.Key) {
	b.ops = append(b.ops, pending{Write{"delete", key}, docstore.Item{}})
}

func (b *memoryBatch) Len() int { return len(b.ops) }

func (b *memoryBatch) Execute(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return b.store.apply(b.ops)
}
