package auth

import (
	"time"

	"github.com/google/uuid"
)

// TenantRef names the tenant a user acts for.
type TenantRef struct {
	ID   uuid.UUID
	Name string
}

// User is an API key holder. Tenant users only ever act inside their own
// tenant's partition; the superuser has no tenant and picks one per request.
type User struct {
	ID          uuid.UUID
	Name        string
	Tenant      *TenantRef // nil for the superuser
	IsSuperuser bool
	KeyPrefix   string
	KeyHash     string
	CreatedAt   time.Time
	RevokedAt   *time.Time
}

// Active reports whether the user's key is still accepted.
func (u *User) Active() bool { return u.RevokedAt == nil }

// Identity is the view of the user that request handlers see.
func (u *User) Identity() *Identity {
	id := &Identity{
		UserID:      u.ID,
		UserName:    u.Name,
		IsSuperuser: u.IsSuperuser,
	}
	if u.Tenant != nil {
		tid, name := u.Tenant.ID, u.Tenant.Name
		id.TenantID = &tid
		id.TenantName = &name
	}
	return id
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID      uuid.UUID
	UserName    string
	TenantID    *uuid.UUID // nil for superuser
	TenantName  *string    // nil for superuser
	IsSuperuser bool
}
