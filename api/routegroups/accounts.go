package routegroups

import (
	"securereport/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterAccounts(apiRouter chi.Router, g Guards, h *handlers.AccountsHandler, roles *handlers.RolesHandler) {
	apiRouter.Route("/users", func(users chi.Router) {
		users.MethodFunc("GET", "/", g.SessionPerm("accounts.manage", h.List))
		users.MethodFunc("POST", "/", g.SessionPerm("accounts.manage", h.Create))
		users.MethodFunc("GET", "/{id}", g.SessionPerm("accounts.manage", h.Get))
		users.MethodFunc("PATCH", "/{id}", g.SessionPerm("accounts.manage", h.Update))
		users.MethodFunc("PUT", "/{id}", g.SessionPerm("accounts.manage", h.Update))
		users.MethodFunc("DELETE", "/{id}", g.SessionPerm("accounts.manage", h.Delete))
	})
	apiRouter.MethodFunc("GET", "/account", g.Session(h.Account))
	apiRouter.MethodFunc("PATCH", "/account", g.Session(h.UpdateAccount))
	apiRouter.MethodFunc("GET", "/roles", g.SessionPerm("roles.view", roles.List))
}
