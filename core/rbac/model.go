package rbac

import (
	"sort"
	"strings"
)

type Permission string

type Role struct {
	Name        string
	Permissions []Permission
}

const (
	PermDashboardView   Permission = "dashboard.view"
	PermReportsView     Permission = "reports.view"
	PermReportsViewFull Permission = "reports.view_full"
	PermReportsEdit     Permission = "reports.edit"
	PermReportsDelete   Permission = "reports.delete"
	PermAccountsView    Permission = "accounts.view"
	PermAccountsManage  Permission = "accounts.manage"
	PermRolesView       Permission = "roles.view"
	PermLogsView        Permission = "logs.view"
	PermAnalyticsExport Permission = "analytics.export"
)

const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
	RoleViewer   = "Viewer"
)

var permissions = []Permission{
	PermDashboardView,
	PermReportsView, PermReportsViewFull, PermReportsEdit, PermReportsDelete,
	PermAccountsView, PermAccountsManage,
	PermRolesView,
	PermLogsView,
	PermAnalyticsExport,
}

var knownPermissionSet = buildPermissionSet()

func buildPermissionSet() map[Permission]struct{} {
	out := make(map[Permission]struct{}, len(permissions))
	for _, p := range permissions {
		out[p] = struct{}{}
	}
	return out
}

func AllPermissions() []Permission {
	out := make([]Permission, len(permissions))
	copy(out, permissions)
	return out
}

func IsKnownPermission(p Permission) bool {
	_, ok := knownPermissionSet[p]
	return ok
}

func NormalizePermissionNames(in []string) ([]string, []string) {
	validSet := map[string]struct{}{}
	invalidSet := map[string]struct{}{}
	for _, raw := range in {
		p := strings.ToLower(strings.TrimSpace(raw))
		if p == "" {
			continue
		}
		if IsKnownPermission(Permission(p)) {
			validSet[p] = struct{}{}
			continue
		}
		invalidSet[p] = struct{}{}
	}
	valid := make([]string, 0, len(validSet))
	for p := range validSet {
		valid = append(valid, p)
	}
	sort.Strings(valid)
	invalid := make([]string, 0, len(invalidSet))
	for p := range invalidSet {
		invalid = append(invalid, p)
	}
	sort.Strings(invalid)
	return valid, invalid
}

var roles = []Role{
	{Name: RoleAdmin, Permissions: permissions},
	{Name: RoleEmployee, Permissions: []Permission{PermDashboardView, PermReportsView, PermReportsViewFull, PermReportsEdit, PermReportsDelete, PermAnalyticsExport}},
	{Name: RoleViewer, Permissions: []Permission{PermDashboardView, PermReportsView, PermAnalyticsExport}},
}

func DefaultRoles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// IsBuiltInRole reports whether name is one of the account roles users can hold.
func IsBuiltInRole(name string) bool {
	for _, r := range roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// CanonicalRole maps case variants of a built-in role name to its canonical form.
func CanonicalRole(name string) (string, bool) {
	v := strings.TrimSpace(name)
	for _, r := range roles {
		if strings.EqualFold(r.Name, v) {
			return r.Name, true
		}
	}
	return v, false
}
