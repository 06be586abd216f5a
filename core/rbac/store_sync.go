package rbac

import (
	"context"

	"securereport/core/store"
)

var roleDescriptions = map[string]string{
	RoleAdmin:    "Full access including account management",
	RoleEmployee: "Handles reports and views the dashboard",
	RoleViewer:   "Read-only access to reports and the dashboard",
}

func EnsureBuiltInAndRefresh(ctx context.Context, roles store.RolesStore, policy *Policy) error {
	if roles == nil || policy == nil {
		return nil
	}
	if err := roles.EnsureBuiltIn(ctx, defaultStoreRoles()); err != nil {
		return err
	}
	return RefreshFromStore(ctx, roles, policy)
}

func RefreshFromStore(ctx context.Context, roles store.RolesStore, policy *Policy) error {
	if roles == nil || policy == nil {
		return nil
	}
	items, err := roles.List(ctx)
	if err != nil {
		return err
	}
	out := make([]Role, 0, len(items))
	for _, item := range items {
		valid, _ := NormalizePermissionNames(item.Permissions)
		perms := make([]Permission, 0, len(valid))
		for _, p := range valid {
			perms = append(perms, Permission(p))
		}
		out = append(out, Role{Name: item.Name, Permissions: perms})
	}
	return policy.Replace(out)
}

func defaultStoreRoles() []store.Role {
	def := DefaultRoles()
	out := make([]store.Role, 0, len(def))
	for _, r := range def {
		perms := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, string(p))
		}
		out = append(out, store.Role{
			Name:        r.Name,
			Description: roleDescriptions[r.Name],
			Permissions: perms,
			BuiltIn:     true,
		})
	}
	return out
}
