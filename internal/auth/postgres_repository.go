package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daap14/headless/internal/tenant"
)

const pgForeignKeyViolation = "23503"

// selectUsers joins each user with its tenant so callers never need a second
// lookup to learn the tenant name.
const selectUsers = `
	SELECT u.id, u.name, u.is_superuser, u.api_key_prefix, u.api_key_hash,
	       u.created_at, u.revoked_at, t.id, t.name
	FROM users u
	LEFT JOIN tenants t ON t.id = u.tenant_id`

// PostgresRepository implements UserRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new UserRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresRepository{pool: pool}
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var (
		u          User
		tenantID   *uuid.UUID
		tenantName *string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.IsSuperuser, &u.KeyPrefix, &u.KeyHash,
		&u.CreatedAt, &u.RevokedAt, &tenantID, &tenantName,
	)
	if err != nil {
		return User{}, err
	}
	if tenantID != nil && tenantName != nil {
		u.Tenant = &TenantRef{ID: *tenantID, Name: *tenantName}
	}
	return u, nil
}

func (r *PostgresRepository) collect(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Create inserts u. The tenant name comes back from the same statement.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	var tenantID *uuid.UUID
	if u.Tenant != nil {
		tenantID = &u.Tenant.ID
	}

	var tenantName *string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, tenant_id, is_superuser, api_key_prefix, api_key_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, (SELECT t.name FROM tenants t WHERE t.id = users.tenant_id)`,
		u.Name, tenantID, u.IsSuperuser, u.KeyPrefix, u.KeyHash,
	).Scan(&u.ID, &u.CreatedAt, &tenantName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return tenant.ErrTenantNotFound
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	if u.Tenant != nil && tenantName != nil {
		u.Tenant.Name = *tenantName
	}
	return nil
}

// Get retrieves a single user by id, revoked or not.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	users, err := r.collect(ctx, selectUsers+` WHERE u.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// ActiveByKeyPrefix uses the partial index on api_key_prefix.
func (r *PostgresRepository) ActiveByKeyPrefix(ctx context.Context, prefix string) ([]User, error) {
	users, err := r.collect(ctx, selectUsers+` WHERE u.api_key_prefix = $1 AND u.revoked_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding users by key prefix: %w", err)
	}
	return users, nil
}

// List returns users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]User, error) {
	users, err := r.collect(ctx,
		selectUsers+` WHERE $1::uuid IS NULL OR u.tenant_id = $1 ORDER BY u.created_at ASC, u.id ASC`,
		filter.TenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Revoke stamps revoked_at. One statement tells a missing user apart from an
// already revoked one.
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	var exists, revoked bool
	err := r.pool.QueryRow(ctx, `
		WITH revoked AS (
			UPDATE users SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
			RETURNING id
		)
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1),
		       EXISTS (SELECT 1 FROM revoked)`, id,
	).Scan(&exists, &revoked)
	if err != nil {
		return fmt.Errorf("revoking user: %w", err)
	}

	switch {
	case revoked:
		return nil
	case !exists:
		return ErrUserNotFound
	default:
		return ErrUserRevoked
	}
}

// HasAny counts revoked users too, so a revoked bootstrap key is never reissued.
func (r *PostgresRepository) HasAny(ctx context.Context) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&found); err != nil {
		return false, fmt.Errorf("checking for users: %w", err)
	}
	return found, nil
}
