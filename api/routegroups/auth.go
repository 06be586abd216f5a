package routegroups

import (
	"net/http"

	"securereport/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterAuth(apiRouter chi.Router, g Guards, h *handlers.AuthHandler, limit func(http.Handler) http.Handler) {
	apiRouter.Route("/auth", func(a chi.Router) {
		a.Group(func(limited chi.Router) {
			limited.Use(limit)
			limited.MethodFunc("POST", "/login", h.Login)
			limited.MethodFunc("POST", "/password_reset", h.PasswordReset)
			limited.MethodFunc("POST", "/password_reset_confirm", h.PasswordResetConfirm)
		})
		a.MethodFunc("POST", "/refresh", h.Refresh)
		a.MethodFunc("POST", "/logout", g.Session(h.Logout))
		a.MethodFunc("GET", "/me", g.Session(h.Me))
	})
}
