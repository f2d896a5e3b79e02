package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect parses the database URL, opens a connection pool and pings it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// PostgresStore implements Store on the documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const (
	insertQuery = `INSERT INTO documents (pk, sk, type, data) VALUES ($1, $2, $3, $4)`
	updateQuery = `UPDATE documents SET type = $3, data = $4, updated_at = NOW() WHERE pk = $1 AND sk = $2`
	deleteQuery = `DELETE FROM documents WHERE pk = $1 AND sk = $2`
)

// Read returns the documents matching q ordered by (pk, sk).
func (s *PostgresStore) Read(ctx context.Context, q Query, limit int) ([]Item, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	argIdx := 1

	if q.PK != "" {
		conditions = append(conditions, fmt.Sprintf("pk = $%d", argIdx))
		args = append(args, q.PK)
	} else {
		conditions = append(conditions, fmt.Sprintf(`pk LIKE $%d ESCAPE '\'`, argIdx))
		args = append(args, escapeLike(q.PKPrefix)+"%")
	}
	argIdx++

	if q.SK != "" {
		conditions = append(conditions, fmt.Sprintf("sk = $%d", argIdx))
		args = append(args, q.SK)
		argIdx++
	} else if q.SKGreaterThan != "" {
		conditions = append(conditions, fmt.Sprintf("sk > $%d", argIdx))
		args = append(args, q.SKGreaterThan)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT pk, sk, type, data FROM documents WHERE %s ORDER BY pk, sk`,
		strings.Join(conditions, " AND "))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var data []byte
		if err := rows.Scan(&it.PK, &it.SK, &it.Type, &data); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		it.Data = data
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}

	if items == nil {
		items = []Item{}
	}

	return items, nil
}

// Create inserts a new document. Returns ErrConflict if the key is taken.
func (s *PostgresStore) Create(ctx context.Context, item Item) error {
	_, err := s.pool.Exec(ctx, insertQuery, item.PK, item.SK, item.Type, []byte(item.Data))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// Update replaces an existing document. Returns ErrNotFound if the key is absent.
func (s *PostgresStore) Update(ctx context.Context, item Item) error {
	result, err := s.pool.Exec(ctx, updateQuery, item.PK, item.SK, item.Type, []byte(item.Data))
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document. Returns ErrNotFound if the key is absent.
func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	result, err := s.pool.Exec(ctx, deleteQuery, key.PK, key.SK)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Batch starts a transactional batch of writes.
func (s *PostgresStore) Batch() Batch {
	return &postgresBatch{pool: s.pool}
}

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

type batchOp struct {
	kind opKind
	item Item
}

type postgresBatch struct {
	pool *pgxpool.Pool
	ops  []batchOp
}

func (b *postgresBatch) Create(item Item) { b.ops = append(b.ops, batchOp{kind: opCreate, item: item}) }
func (b *postgresBatch) Update(item Item) { b.ops = append(b.ops, batchOp{kind: opUpdate, item: item}) }
func (b *postgresBatch) Delete(key Key) {
	b.ops = append(b.ops, batchOp{kind: opDelete, item: Item{PK: key.PK, SK: key.SK}})
}
func (b *postgresBatch) Len() int { return len(b.ops) }

// Execute sends every queued write inside one transaction. Any failing write,
// including an update or delete that matches no row, rolls the whole batch back.
func (b *postgresBatch) Execute(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, op := range b.ops {
		switch op.kind {
		case opCreate:
			batch.Queue(insertQuery, op.item.PK, op.item.SK, op.item.Type, []byte(op.item.Data))
		case opUpdate:
			batch.Queue(updateQuery, op.item.PK, op.item.SK, op.item.Type, []byte(op.item.Data))
		case opDelete:
			batch.Queue(deleteQuery, op.item.PK, op.item.SK)
		}
	}

	results := tx.SendBatch(ctx, batch)
	for _, op := range b.ops {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			if op.kind == opCreate && isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("executing batch write on %s/%s: %w", op.item.PK, op.item.SK, err)
		}
		if op.kind != opCreate && tag.RowsAffected() == 0 {
			results.Close()
			return fmt.Errorf("batch write on %s/%s: %w", op.item.PK, op.item.SK, ErrNotFound)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
