package api

import (
	"net/http"

	"securereport/api/handlers"
	"securereport/api/routegroups"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerRoutes() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.clientIPMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.corsMiddleware())

	s.registerObservabilityRoutes()

	g := routegroups.Guards{
		WithSession:         s.withSession,
		WithOptionalSession: s.withOptionalSession,
		RequirePermission:   s.requirePermission,
		RequireAnyPermission: func(perms ...string) func(http.HandlerFunc) http.HandlerFunc {
			return s.requireAnyPermission(perms...)
		},
	}
	authLimit := s.rateLimit(s.cfg.Security.LoginRateLimit, s.cfg.Security.LoginRateWindow)
	intakeLimit := s.rateLimit(s.cfg.Security.IntakeRateLimit, s.cfg.Security.IntakeRateWindow)

	apiRouter := chi.NewRouter()
	routegroups.RegisterAuth(apiRouter, g,
		handlers.NewAuthHandler(s.cfg, s.users, s.sessionManager, s.tokens, s.policy, s.audits, s.mailer, s.logger), authLimit)
	routegroups.RegisterAccounts(apiRouter, g,
		handlers.NewAccountsHandler(s.cfg, s.users, s.sessionManager, s.policy, s.audits, s.logger),
		handlers.NewRolesHandler(s.roles))
	routegroups.RegisterReports(apiRouter, g,
		handlers.NewReportsHandler(s.cfg, s.reportsStore, s.reportsSvc, s.files, s.policy, s.audits, s.logger), intakeLimit)
	routegroups.RegisterAnalytics(apiRouter, g, handlers.NewAnalyticsHandler(s.dashboard, s.policy, s.logger))
	routegroups.RegisterLogs(apiRouter, g, handlers.NewLogsHandler(s.audits))
	s.router.Mount("/api", apiRouter)
}
