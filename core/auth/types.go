package auth

import (
	"context"
	"time"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Principal is the authenticated caller, resolved per request from the
// access token and re-checked against the session and user rows.
type Principal struct {
	UserID    int64
	SessionID string
	Email     string
	FullName  string
	Role      string
	Status    string
}

func (p *Principal) Active() bool {
	return p != nil && p.Status == "active"
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

type LoginResult struct {
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	User    *UserDTO `json:"user"`
}

type UserDTO struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Role              string     `json:"role"`
	Status            string     `json:"status"`
	DateJoined        time.Time  `json:"date_joined"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	Permissions       []string   `json:"permissions,omitempty"`
}
