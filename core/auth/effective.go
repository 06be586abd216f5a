package auth

import (
	"securereport/core/rbac"
	"securereport/core/store"
)

// EffectivePermissions lists what role may do under policy, sorted. Inactive
// accounts get nothing regardless of role.
func EffectivePermissions(user *store.User, policy *rbac.Policy) []string {
	if user == nil || policy == nil || !user.IsActive() {
		return []string{}
	}
	perms := policy.PermissionsForRoles([]string{user.Role})
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

func NewUserDTO(user *store.User, policy *rbac.Policy) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:                user.ID,
		Email:             user.Email,
		FullName:          user.FullName,
		Role:              user.Role,
		Status:            user.Status,
		DateJoined:        user.DateJoined,
		LastLoginAt:       user.LastLoginAt,
		PasswordChangedAt: user.PasswordChangedAt,
		Permissions:       EffectivePermissions(user, policy),
	}
}

func PrincipalFromUser(user *store.User, sessionID string) *Principal {
	return &Principal{
		UserID:    user.ID,
		SessionID: sessionID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		Status:    user.Status,
	}
}
