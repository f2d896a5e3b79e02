// Package keyspace derives the document store partition keys that isolate
// records by tenant and locale.
package keyspace

import (
	"fmt"

	"github.com/daap14/headless/internal/tenancy"
)

// EnvironmentPK is the partition holding the environments of a scope.
func EnvironmentPK(s tenancy.Scope) string {
	return fmt.Sprintf("T#%s#L#%s#CMS#E", s.Tenant, s.Locale)
}

// EnvironmentAliasPK is the partition holding the environment aliases of a scope.
func EnvironmentAliasPK(s tenancy.Scope) string {
	return fmt.Sprintf("T#%s#L#%s#CMS#EA", s.Tenant, s.Locale)
}

// ContentPrefix is the partition key prefix shared by every row owned by one
// environment. The trailing separator keeps "env-1" from matching "env-10".
func ContentPrefix(s tenancy.Scope, environmentID string) string {
	return fmt.Sprintf("T#%s#L#%s#CMS#ENV#%s#", s.Tenant, s.Locale, environmentID)
}

// SettingsPK is the tenant-wide partition for file manager settings.
func SettingsPK(s tenancy.Scope) string {
	return fmt.Sprintf("T#%s#FM#SETTINGS", s.Tenant)
}
