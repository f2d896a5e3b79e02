package middleware

import (
	"net/http"
	"regexp"

	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/tenancy"
	"github.com/daap14/headless/internal/validation"
)

// localeRegex accepts BCP 47 style tags such as "en", "en-US" or "zh-Hant-TW".
var localeRegex = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

// Scope returns middleware that resolves the tenant/locale partition of the
// request and stores it on the context. It must run after Auth.
//
// Tenant users always act on their own tenant. The superuser may pick one with
// X-Tenant and falls back to defaultTenant. The locale comes from X-Locale or
// defaultLocale.
func Scope(defaultTenant, defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
				return
			}

			var tenant string
			switch {
			case !identity.IsSuperuser:
				if identity.TenantName == nil {
					response.Err(w, http.StatusForbidden, "FORBIDDEN", "User is not assigned to a tenant", requestID)
					return
				}
				tenant = *identity.TenantName
			case r.Header.Get("X-Tenant") != "":
				tenant = r.Header.Get("X-Tenant")
			default:
				tenant = defaultTenant
			}

			locale := r.Header.Get("X-Locale")
			if locale == "" {
				locale = defaultLocale
			}

			var fieldErrors []validation.FieldError
			if !validation.NameRegex.MatchString(tenant) {
				fieldErrors = append(fieldErrors, validation.FieldError{Field: "X-Tenant", Message: "X-Tenant must be a valid tenant name"})
			}
			if !localeRegex.MatchString(locale) {
				fieldErrors = append(fieldErrors, validation.FieldError{Field: "X-Locale", Message: "X-Locale must be a locale code such as en-US"})
			}
			if len(fieldErrors) > 0 {
				response.ValidationErr(w, fieldErrors, requestID)
				return
			}

			ctx := tenancy.WithScope(r.Context(), tenancy.Scope{Tenant: tenant, Locale: locale})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
