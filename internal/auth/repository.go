package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no user has the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserRevoked is returned when revoking a user whose key is already revoked.
	ErrUserRevoked = errors.New("user is revoked")
)

// ListFilter narrows List. The zero value lists every user.
type ListFilter struct {
	TenantID *uuid.UUID
}

// UserRepository stores users together with the tenant they belong to.
// Every returned user has Tenant.Name filled in.
type UserRepository interface {
	// Create stores u and fills its ID, CreatedAt and Tenant.Name. It fails
	// with tenant.ErrTenantNotFound when u.Tenant references no tenant.
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	// ActiveByKeyPrefix returns the non-revoked users whose key starts with prefix.
	ActiveByKeyPrefix(ctx context.Context, prefix string) ([]User, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	// HasAny reports whether any user, revoked or not, exists.
	HasAny(ctx context.Context) (bool, error)
}
