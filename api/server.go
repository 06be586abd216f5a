package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"securereport/config"
	"securereport/core/analytics"
	"securereport/core/auth"
	"securereport/core/maintenance"
	"securereport/core/rbac"
	"securereport/core/reports"
	"securereport/core/store"
	"securereport/core/utils"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	cfg             *config.AppConfig
	db              *sql.DB
	router          *chi.Mux
	httpServer      *http.Server
	logger          *utils.Logger
	sessionManager  *auth.SessionManager
	tokens          *auth.TokenManager
	users           store.UsersStore
	sessions        store.SessionStore
	roles           store.RolesStore
	audits          store.AuditStore
	reportsStore    store.ReportsStore
	policy          *rbac.Policy
	dashboard       *analytics.Dashboard
	reportsSvc      *reports.Service
	files           *reports.FileStorage
	mailer          auth.Mailer
	maintenance     *maintenance.Scheduler
	metrics         *httpMetrics
	activityTracker *sessionActivity
}

func NewServer(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *Server {
	return NewServerWithDeps(cfg, db, ServerDeps{}, logger)
}

func NewServerWithDeps(cfg *config.AppConfig, db *sql.DB, deps ServerDeps, logger *utils.Logger) *Server {
	deps = deps.withDefaults(db, logger)
	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		logger.Warnf("analytics timezone %q: %v, using UTC", cfg.Analytics.Timezone, err)
		loc = time.UTC
	}
	files := reports.NewFileStorage(cfg.Attachments.StorageDir, cfg.Attachments.MaxUploadBytes)
	s := &Server{
		cfg:             cfg,
		db:              db,
		router:          chi.NewRouter(),
		logger:          logger,
		sessionManager:  auth.NewSessionManager(deps.Sessions, cfg.RefreshTokenTTL),
		tokens:          auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		users:           deps.Users,
		sessions:        deps.Sessions,
		roles:           deps.Roles,
		audits:          deps.Audits,
		reportsStore:    deps.ReportsStore,
		policy:          deps.Policy,
		dashboard:       analytics.NewDashboard(deps.ReportsStore, loc, logger, cfg.Analytics.DefaultLang),
		reportsSvc:      reports.NewService(deps.ReportsStore, files, deps.Classifier, logger),
		files:           files,
		mailer:          deps.Mailer,
		maintenance:     maintenance.NewScheduler(cfg.Maintenance, deps.Sessions, logger),
		metrics:         newHTTPMetrics(),
		activityTracker: newSessionActivity(),
	}
	if err := rbac.EnsureBuiltInAndRefresh(context.Background(), s.roles, s.policy); err != nil {
		logger.Errorf("bootstrap roles: %v", err)
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if err := s.maintenance.StartWithContext(context.Background()); err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	if s.cfg.TLSEnabled {
		return s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.maintenance.StopWithContext(ctx); err != nil {
		s.logger.Warnf("stop maintenance: %v", err)
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
