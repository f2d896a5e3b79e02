package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTenantNotFound is returned when a tenant record is not found.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrDuplicateTenantName is returned when a tenant with the same name already exists.
var ErrDuplicateTenantName = errors.New("tenant name already exists")

// ErrTenantHasUsers is returned when attempting to delete a tenant that still has users.
var ErrTenantHasUsers = errors.New("tenant has users")

// Repository provides CRUD operations on the tenants table.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
