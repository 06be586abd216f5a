package routegroups

import "net/http"

type Guards struct {
	WithSession          func(http.HandlerFunc) http.HandlerFunc
	WithOptionalSession  func(http.HandlerFunc) http.HandlerFunc
	RequirePermission    func(string) func(http.HandlerFunc) http.HandlerFunc
	RequireAnyPermission func(...string) func(http.HandlerFunc) http.HandlerFunc
}

func (g Guards) Session(handler http.HandlerFunc) http.HandlerFunc {
	return g.WithSession(handler)
}

// Optional resolves the caller when a valid token is present and lets
// anonymous requests through.
func (g Guards) Optional(handler http.HandlerFunc) http.HandlerFunc {
	return g.WithOptionalSession(handler)
}

func (g Guards) SessionPerm(perm string, handler http.HandlerFunc) http.HandlerFunc {
	return g.WithSession(g.RequirePermission(perm)(handler))
}

func (g Guards) SessionAnyPerm(perms []string, handler http.HandlerFunc) http.HandlerFunc {
	return g.WithSession(g.RequireAnyPermission(perms...)(handler))
}
