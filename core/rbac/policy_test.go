package rbac

import "testing"

func TestPolicyAllowed_DefaultRoles(t *testing.T) {
	p := NewPolicy(DefaultRoles())
	if p == nil {
		t.Fatal("policy is nil")
	}

	if !p.Allowed([]string{RoleAdmin}, PermAccountsManage) {
		t.Fatal("Admin must have accounts.manage")
	}
	if p.Allowed([]string{RoleEmployee}, PermAccountsManage) {
		t.Fatal("Employee must not have accounts.manage")
	}
	if !p.Allowed([]string{RoleEmployee}, PermReportsDelete) {
		t.Fatal("Employee must have reports.delete")
	}
	if !p.Allowed([]string{RoleViewer}, PermDashboardView) {
		t.Fatal("Viewer must have dashboard.view")
	}
	if p.Allowed([]string{RoleViewer}, PermReportsViewFull) {
		t.Fatal("Viewer must not have reports.view_full")
	}
	if p.Allowed([]string{"admin"}, PermAccountsManage) {
		t.Fatal("role names are case-sensitive")
	}
	if p.Allowed(nil, PermDashboardView) {
		t.Fatal("no roles must not be allowed")
	}
}

func TestPolicyReplace_RebuildsEnforcer(t *testing.T) {
	p := NewPolicy(nil)
	if err := p.Replace([]Role{
		{
			Name: "custom",
			Permissions: []Permission{
				PermLogsView,
			},
		},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if !p.Allowed([]string{"custom"}, PermLogsView) {
		t.Fatal("custom role must have logs.view")
	}
	if p.Allowed([]string{"custom"}, PermAccountsManage) {
		t.Fatal("custom role must not have accounts.manage")
	}
	if len(p.Roles()) != 1 {
		t.Fatalf("expected one role, got %v", p.Roles())
	}
}

func TestPermissionsForRoles_UniqueUnion(t *testing.T) {
	p := NewPolicy([]Role{
		{
			Name: "r1",
			Permissions: []Permission{
				PermReportsView,
				PermLogsView,
			},
		},
		{
			Name: "r2",
			Permissions: []Permission{
				PermReportsView,
			},
		},
	})

	perms := p.PermissionsForRoles([]string{"r1", "r2"})
	if len(perms) != 2 {
		t.Fatalf("expected 2 unique permissions, got %d", len(perms))
	}
	if perms[0] != PermLogsView || perms[1] != PermReportsView {
		t.Fatalf("expected sorted permissions, got %v", perms)
	}
}
