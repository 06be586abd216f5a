package routegroups

import (
	"securereport/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterLogs(apiRouter chi.Router, g Guards, h *handlers.LogsHandler) {
	apiRouter.MethodFunc("GET", "/logs", g.SessionPerm("logs.view", h.List))
}
