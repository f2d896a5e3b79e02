package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a row in the tenants table. Its Name is the tenant
// segment of every document store partition key it owns.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
