package environment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoBaseEnvironment matches both ways a non-initial create can lack a source.
	ErrNoBaseEnvironment = errors.New("no base environment available")

	// ErrNoEnvironments is returned when a non-initial create runs against an empty scope.
	ErrNoEnvironments error = noEnvironmentsError{}

	// ErrSlugConflict matches *SlugConflictError.
	ErrSlugConflict = errors.New("slug already exists")

	// ErrLinkedToAliases matches *AliasConflictError.
	ErrLinkedToAliases = errors.New("environment is linked to aliases")

	// ErrEnvironmentNotFound is returned when an operation targets a missing environment.
	ErrEnvironmentNotFound = errors.New("environment not found")

	// ErrAliasNotFound is returned when an operation targets a missing alias.
	ErrAliasNotFound = errors.New("environment alias not found")

	// ErrAlreadyInstalled is returned by Install when the scope already has environments.
	ErrAlreadyInstalled = errors.New("headless cms is already installed")
)

type noEnvironmentsError struct{}

func (noEnvironmentsError) Error() string        { return "there are no environments in the database" }
func (noEnvironmentsError) Is(target error) bool { return target == ErrNoBaseEnvironment }

// SourceNotFoundError is returned when createdFrom is empty or names no
// existing environment.
type SourceNotFoundError struct {
	CreatedFrom string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("base environment (\"createdFrom\" field) not set or environment \"%s\" does not exist", e.CreatedFrom)
}

func (e *SourceNotFoundError) Is(target error) bool { return target == ErrNoBaseEnvironment }

// SlugConflictError is returned when another record in the scope already uses the slug.
type SlugConflictError struct {
	Kind string
	Slug string
}

func (e *SlugConflictError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "environment"
	}
	return fmt.Sprintf("%s with slug \"%s\" already exists", kind, e.Slug)
}

func (e *SlugConflictError) Is(target error) bool { return target == ErrSlugConflict }

// AliasConflictError is returned when deleting an environment that aliases still point at.
type AliasConflictError struct {
	Aliases []string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("cannot delete the environment because it's currently linked to the \"%s\" environment aliases",
		strings.Join(e.Aliases, ", "))
}

func (e *AliasConflictError) Is(target error) bool { return target == ErrLinkedToAliases }
