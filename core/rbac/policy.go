package rbac

import (
	"fmt"
	"sort"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Roles are casbin subjects, permissions are actions.
const casbinModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act
`

type Policy struct {
	mu        sync.RWMutex
	enforcer  *casbin.Enforcer
	rolePerms map[string]map[Permission]struct{}
}

func NewPolicy(roles []Role) *Policy {
	p := &Policy{rolePerms: map[string]map[Permission]struct{}{}}
	if err := p.Replace(roles); err != nil {
		// the model is a constant; a failure here is a programming error
		panic(err)
	}
	return p
}

func newEnforcer(roles []Role) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for _, r := range roles {
		for _, perm := range r.Permissions {
			if _, err := e.AddPolicy(r.Name, string(perm)); err != nil {
				return nil, fmt.Errorf("rbac policy %s/%s: %w", r.Name, perm, err)
			}
		}
	}
	return e, nil
}

func (p *Policy) Allowed(userRoles []string, perm Permission) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.enforcer == nil {
		return false
	}
	for _, r := range userRoles {
		ok, err := p.enforcer.Enforce(r, string(perm))
		if err == nil && ok {
			return true
		}
	}
	return false
}

func (p *Policy) Roles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.rolePerms))
	for k := range p.rolePerms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PermissionsForRoles returns the sorted union of permissions for the provided roles.
func (p *Policy) PermissionsForRoles(roles []string) []Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := map[Permission]struct{}{}
	for _, r := range roles {
		for perm := range p.rolePerms[r] {
			set[perm] = struct{}{}
		}
	}
	out := make([]Permission, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Replace swaps the whole rule set; on error the previous rules stay active.
func (p *Policy) Replace(roles []Role) error {
	e, err := newEnforcer(roles)
	if err != nil {
		return err
	}
	rp := make(map[string]map[Permission]struct{}, len(roles))
	for _, r := range roles {
		m := make(map[Permission]struct{}, len(r.Permissions))
		for _, perm := range r.Permissions {
			m[perm] = struct{}{}
		}
		rp[r.Name] = m
	}
	p.mu.Lock()
	p.enforcer = e
	p.rolePerms = rp
	p.mu.Unlock()
	return nil
}
