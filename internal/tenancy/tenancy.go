package tenancy

import (
	"context"
	"errors"
)

// ErrMissingScope is returned when a request context carries no tenant/locale scope.
var ErrMissingScope = errors.New("tenant and locale scope is not set")

type contextKey string

const scopeKey contextKey = "scope"

// Scope identifies the tenant/locale partition a request operates on.
type Scope struct {
	Tenant string
	Locale string
}

// WithScope returns a copy of ctx carrying the given scope.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext returns the scope stored in ctx, if any.
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey).(Scope)
	return s, ok
}

// Require returns the scope stored in ctx or ErrMissingScope when absent or incomplete.
func Require(ctx context.Context) (Scope, error) {
	s, ok := FromContext(ctx)
	if !ok || s.Tenant == "" || s.Locale == "" {
		return Scope{}, ErrMissingScope
	}
	return s, nil
}
