package validation

import (
	"strings"

	"github.com/google/uuid"
)

// CreateTenantRequest mirrors the fields needed for create tenant validation.
type CreateTenantRequest struct {
	Name string
}

// ValidateCreateTenantRequest validates the fields of a create tenant request.
// Tenant names end up inside partition keys, so "#" and uppercase are rejected
// by the name pattern.
func ValidateCreateTenantRequest(req CreateTenantRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if !NameRegex.MatchString(name) {
		errs = append(errs, FieldError{Field: "name", Message: "name must be lowercase alphanumeric with hyphens, 3-63 characters, starting with a letter"})
	} else if strings.Contains(name, "--") {
		errs = append(errs, FieldError{Field: "name", Message: "name must not contain consecutive hyphens"})
	}

	return errs
}

// CreateUserRequest mirrors the fields needed for create user validation.
type CreateUserRequest struct {
	Name     string
	TenantID string
}

// ValidateCreateUserRequest validates the fields of a create user request.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if req.TenantID == "" {
		errs = append(errs, FieldError{Field: "tenantId", Message: "tenantId is required"})
	} else if _, err := uuid.Parse(req.TenantID); err != nil {
		errs = append(errs, FieldError{Field: "tenantId", Message: "tenantId must be a valid UUID"})
	}

	return errs
}
