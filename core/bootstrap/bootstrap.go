package bootstrap

import (
	"context"
	"database/sql"
	"strings"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/store"
	"securereport/core/utils"
)

const DefaultAdminEmail = "admin@securereport.local"

// EnsureDefaultAdmin ensures the admin account exists.
func EnsureDefaultAdmin(ctx context.Context, db *sql.DB, cfg *config.AppConfig, logger *utils.Logger) error {
	us := store.NewUsersStore(db)
	return EnsureDefaultAdminWithStore(ctx, us, cfg, logger)
}

// EnsureDefaultAdminWithStore creates the default admin on first start. An
// existing account is left untouched except that it is pulled back to the
// Admin role and active status so the system never loses its last operator.
func EnsureDefaultAdminWithStore(ctx context.Context, us store.UsersStore, cfg *config.AppConfig, logger *utils.Logger) error {
	existing, err := us.FindByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != rbac.RoleAdmin || !existing.IsActive() {
			existing.Role = rbac.RoleAdmin
			existing.Status = store.UserStatusActive
			if err := us.Update(ctx, existing); err != nil {
				logger.Printf("default admin update failed: %v", err)
			}
		}
		return nil
	}
	password := strings.TrimSpace(cfg.AdminPassword)
	generated := false
	if password == "" {
		raw, err := utils.RandString(18)
		if err != nil {
			return err
		}
		password = raw
		generated = true
	}
	ph, err := auth.HashPassword(password, cfg.Pepper)
	if err != nil {
		return err
	}
	u := &store.User{
		Email:        DefaultAdminEmail,
		FullName:     "Default Administrator",
		Role:         rbac.RoleAdmin,
		Status:       store.UserStatusActive,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
	}
	if _, err := us.Create(ctx, u); err != nil {
		return err
	}
	if generated {
		logger.Printf("default admin %s created with generated password: %s", DefaultAdminEmail, password)
	} else {
		logger.Printf("default admin %s created", DefaultAdminEmail)
	}
	return nil
}

// Seed prepares a fresh database: built-in roles, the live policy and the
// default admin.
func Seed(ctx context.Context, db *sql.DB, cfg *config.AppConfig, policy *rbac.Policy, logger *utils.Logger) error {
	if err := rbac.EnsureBuiltInAndRefresh(ctx, store.NewRolesStore(db), policy); err != nil {
		return err
	}
	return EnsureDefaultAdmin(ctx, db, cfg, logger)
}
