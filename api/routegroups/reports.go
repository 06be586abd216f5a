package routegroups

import (
	"net/http"

	"securereport/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterReports(apiRouter chi.Router, g Guards, h *handlers.ReportsHandler, intakeLimit func(http.Handler) http.Handler) {
	apiRouter.Route("/reports", func(reports chi.Router) {
		reports.With(intakeLimit).MethodFunc("POST", "/", h.Create)
		reports.MethodFunc("GET", "/", g.SessionPerm("reports.view", h.ListActive))
		reports.MethodFunc("GET", "/archive", g.SessionPerm("reports.view", h.ListArchive))
		reports.MethodFunc("GET", "/track/{code}", h.Track)
		reports.MethodFunc("GET", "/track/{code}/qr", h.TrackQR)
		reports.MethodFunc("GET", "/{id}", g.SessionPerm("reports.view", h.Get))
		reports.MethodFunc("PATCH", "/{id}", g.SessionPerm("reports.edit", h.Update))
		reports.MethodFunc("PUT", "/{id}", g.SessionPerm("reports.edit", h.Update))
		reports.MethodFunc("DELETE", "/{id}", g.SessionPerm("reports.delete", h.Delete))
	})
	apiRouter.MethodFunc("GET", "/attachments/{id}", g.SessionPerm("reports.view_full", h.DownloadAttachment))
}
