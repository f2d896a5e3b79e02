package environment

import "time"

// Document type tags stored alongside every row.
const (
	EnvironmentType = "cms#env"
	AliasType       = "cms#env-alias"
)

// CreatedBy identifies the user that created a record.
type CreatedBy struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Ref is a snapshot of the environment another environment was cloned from.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Environment is an isolated content workspace within a tenant/locale scope.
type Environment struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	CreatedOn   time.Time  `json:"createdOn"`
	ChangedOn   *time.Time `json:"changedOn"`
	CreatedBy   CreatedBy  `json:"createdBy"`
	CreatedFrom *Ref       `json:"createdFrom"`
}

// Target is the environment an alias points at.
type Target struct {
	ID string `json:"id"`
}

// Alias is a stable name pointing at exactly one environment.
type Alias struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Environment Target     `json:"environment"`
	CreatedOn   time.Time  `json:"createdOn"`
	ChangedOn   *time.Time `json:"changedOn"`
	CreatedBy   CreatedBy  `json:"createdBy"`
}

// CreateInput is the payload for creating an environment.
type CreateInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CreatedFrom string `json:"createdFrom"`
}

// UpdateInput is a partial update of an environment. Nil fields are left untouched.
type UpdateInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// Changes holds the fields an update actually modified.
type Changes struct {
	Name        *string    `json:"name,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
	Description *string    `json:"description,omitempty"`
	ChangedOn   *time.Time `json:"changedOn,omitempty"`
}

// Empty reports whether no field changed.
func (c Changes) Empty() bool {
	return c.Name == nil && c.Slug == nil && c.Description == nil
}

// Apply returns e with the changes merged in.
func (c Changes) Apply(e Environment) Environment {
	if c.Name != nil {
		e.Name = *c.Name
	}
	if c.Slug != nil {
		e.Slug = *c.Slug
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.ChangedOn != nil {
		e.ChangedOn = c.ChangedOn
	}
	return e
}

// CreateAliasInput is the payload for creating an alias.
type CreateAliasInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Environment string `json:"environment"`
}

// UpdateAliasInput is a partial update of an alias.
type UpdateAliasInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Environment *string `json:"environment"`
}
