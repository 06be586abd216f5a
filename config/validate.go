package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultJWTSecret = "dev-only-jwt-secret-change-me-0123456789abcdef"
	defaultPepper    = "dev-only-pepper-change-me"
	minJWTSecretLen  = 32
)

func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if driver == "" {
		driver = "postgres"
	}
	if driver != "postgres" && driver != "pg" {
		return fmt.Errorf("unsupported db_driver: %s", cfg.DBDriver)
	}
	if strings.TrimSpace(cfg.DBURL) == "" {
		return fmt.Errorf("db_url must be set for postgres driver")
	}
	appEnv := strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	secret := strings.TrimSpace(cfg.JWTSecret)
	pep := strings.TrimSpace(cfg.Pepper)
	if secret == "" || pep == "" {
		return fmt.Errorf("jwt_secret and pepper must be set via env")
	}
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.Analytics.Timezone)); err != nil {
		return fmt.Errorf("analytics.timezone: %w", err)
	}
	if cfg.Maintenance.Enabled {
		if _, err := ParseSchedule(cfg.Maintenance.Schedule); err != nil {
			return fmt.Errorf("maintenance.schedule: %w", err)
		}
	}
	if appEnv != "dev" {
		if isDefaultSecret(secret) || isDefaultSecret(pep) {
			return fmt.Errorf("default secrets are not allowed outside APP_ENV=dev")
		}
		if len(secret) < minJWTSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d characters", minJWTSecretLen)
		}
		if !cfg.TLSEnabled && !cfg.Security.TLSOffloaded {
			return fmt.Errorf("tls_enabled=false is only allowed in APP_ENV=dev or behind a TLS-terminating proxy")
		}
	}
	return nil
}

// ParseSchedule parses a standard 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(strings.TrimSpace(expr))
}

func isDefaultSecret(val string) bool {
	switch val {
	case defaultJWTSecret, defaultPepper:
		return true
	default:
		return false
	}
}
