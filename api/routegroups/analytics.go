package routegroups

import (
	"securereport/api/handlers"

	"github.com/go-chi/chi/v5"
)

// RegisterAnalytics mounts the dashboard endpoints. stats and recent answer
// anonymous callers with empty payloads.
func RegisterAnalytics(apiRouter chi.Router, g Guards, h *handlers.AnalyticsHandler) {
	apiRouter.Route("/analytics", func(a chi.Router) {
		a.MethodFunc("GET", "/stats", g.Optional(h.Stats))
		a.MethodFunc("GET", "/recent", g.Optional(h.Recent))
		a.MethodFunc("GET", "/site_stats", h.SiteStats)
		a.MethodFunc("GET", "/charts/{name}.svg", g.SessionPerm("analytics.export", h.ChartSVG))
	})
}
