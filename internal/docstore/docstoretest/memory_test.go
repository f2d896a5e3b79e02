package docstoretest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/docstore/docstoretest"
)

func TestMemory_ReadMatchesQuery(t *testing.T) {
	m := docstoretest.New(
		docstore.Item{PK: "A#1#", SK: "b"},
		docstore.Item{PK: "A#1#", SK: "a"},
		docstore.Item{PK: "A#10#", SK: "a"},
	)
	ctx := context.Background()

	got, err := m.Read(ctx, docstore.Query{PKPrefix: "A#1#"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SK)

	got, err = m.Read(ctx, docstore.Query{PK: "A#1#", SKGreaterThan: "a"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].SK)

	_, err = m.Read(ctx, docstore.Query{PK: "x", PKPrefix: "y"}, 0)
	assert.Error(t, err)
}

func TestMemory_BatchAllOrNothing(t *testing.T) {
	m := docstoretest.New(docstore.Item{PK: "P", SK: "1"})
	ctx := context.Background()

	b := m.Batch()
	b.Create(docstore.Item{PK: "P", SK: "2"})
	b.Delete(docstore.Key{PK: "P", SK: "missing"})
	assert.ErrorIs(t, b.Execute(ctx), docstore.ErrNotFound)
	assert.Len(t, m.Items(), 1)
	assert.Empty(t, m.Writes())

	assert.ErrorIs(t, m.Create(ctx, docstore.Item{PK: "P", SK: "1"}), docstore.ErrConflict)
}

func TestMemory_FailWrite(t *testing.T) {
	m := docstoretest.New()
	m.FailWrite = func(w docstoretest.Write) error {
		if w.Op == "create" {
			return errors.New("denied")
		}
		return nil
	}

	assert.EqualError(t, m.Create(context.Background(), docstore.Item{PK: "P", SK: "1"}), "denied")
	assert.Empty(t, m.Items())
}
