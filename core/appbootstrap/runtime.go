package appbootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"securereport/api"
	"securereport/config"
	"securereport/core/bootstrap"
	"securereport/core/rbac"
	"securereport/core/store"
	"securereport/core/utils"
)

// Runtime is the composed service: an open, migrated and seeded database and
// the HTTP server built on it.
type Runtime struct {
	DB     *sql.DB
	Server *api.Server
	Policy *rbac.Policy
}

func InitRuntime(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*Runtime, error) {
	if err := ensureStorageDirs(cfg, logger); err != nil {
		return nil, fmt.Errorf("storage dirs: %w", err)
	}
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}
	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	policy := rbac.NewPolicy(rbac.DefaultRoles())
	if err := bootstrap.Seed(ctx, db, cfg, policy, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	srv := api.NewServerWithDeps(cfg, db, api.ServerDeps{Policy: policy}, logger)
	return &Runtime{DB: db, Server: srv, Policy: policy}, nil
}

// Shutdown stops the server and its scheduler, then closes the database.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var firstErr error
	if r.Server != nil {
		firstErr = r.Server.Stop(ctx)
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
