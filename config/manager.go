package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	defaultConfigPath = "config/app.yaml"
	envPrefix         = "SECUREREPORT_"
)

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfgPath := resolveConfigPath()
	if st, err := os.Stat(cfgPath); err == nil && !st.IsDir() {
		if err := cleanenv.ReadConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	applyEnvAliases(cfg)
	normalizeConfig(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvAliases(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	if v := getEnv("DATABASE_URL"); v != "" && strings.TrimSpace(cfg.DBURL) == "" {
		cfg.DBURL = strings.TrimSpace(v)
	}
	if v := getEnv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = strings.TrimSpace(v)
	}
	if v := getEnv("PEPPER"); v != "" {
		cfg.Pepper = strings.TrimSpace(v)
	}
	if v := getEnv("ENV", "APP_ENV"); v != "" {
		cfg.AppEnv = strings.TrimSpace(v)
	}
	if v := getEnv("PORT", envPrefix+"PORT"); v != "" {
		cfg.ListenAddr = listenAddrWithPort(cfg.ListenAddr, v)
	}
	if v := getEnv("DATA_PATH", envPrefix+"DATA_PATH"); v != "" {
		cfg.Attachments.StorageDir = filepathJoin(strings.TrimSpace(v), "attachments")
	}
	if v := getEnv("ATTACHMENTS_DIR"); v != "" {
		cfg.Attachments.StorageDir = strings.TrimSpace(v)
	}
	if v := getEnv("TZ_ANALYTICS"); v != "" {
		cfg.Analytics.Timezone = strings.TrimSpace(v)
	}
}

func normalizeConfig(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.DBURL = strings.TrimSpace(cfg.DBURL)
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.Pepper = strings.TrimSpace(cfg.Pepper)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.Attachments.StorageDir = strings.TrimSpace(cfg.Attachments.StorageDir)
	cfg.Analytics.Timezone = strings.TrimSpace(cfg.Analytics.Timezone)
	cfg.Analytics.DefaultLang = strings.ToLower(strings.TrimSpace(cfg.Analytics.DefaultLang))
	cfg.Maintenance.Schedule = strings.TrimSpace(cfg.Maintenance.Schedule)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.DBDriver == "" {
		cfg.DBDriver = "postgres"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:8080"
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 24 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 30 * time.Minute
	}
	if cfg.Analytics.Timezone == "" {
		cfg.Analytics.Timezone = "Africa/Cairo"
	}
	if cfg.Analytics.DefaultLang != "en" {
		cfg.Analytics.DefaultLang = "ar"
	}
	if cfg.Attachments.StorageDir == "" {
		cfg.Attachments.StorageDir = filepathJoin("data", "attachments")
	}
	if cfg.Attachments.MaxUploadBytes <= 0 {
		cfg.Attachments.MaxUploadBytes = 25 * 1024 * 1024
	}
	if cfg.Security.LoginRateLimit <= 0 {
		cfg.Security.LoginRateLimit = 5
	}
	if cfg.Security.LoginRateWindow <= 0 {
		cfg.Security.LoginRateWindow = time.Minute
	}
	if cfg.Security.IntakeRateLimit <= 0 {
		cfg.Security.IntakeRateLimit = 20
	}
	if cfg.Security.IntakeRateWindow <= 0 {
		cfg.Security.IntakeRateWindow = time.Minute
	}
	if cfg.Maintenance.Schedule == "" {
		cfg.Maintenance.Schedule = "*/15 * * * *"
	}
	if cfg.Maintenance.SessionRetention <= 0 {
		cfg.Maintenance.SessionRetention = 7 * 24 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format != "console" {
		cfg.Logging.Format = "json"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "prod"
	}
	origins := make([]string, 0, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORS.AllowedOrigins = origins
}

func getEnv(keys ...string) string {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func resolveConfigPath() string {
	if v := getEnv("APP_CONFIG", envPrefix+"APP_CONFIG"); v != "" {
		return strings.TrimSpace(v)
	}
	return defaultConfigPath
}

func listenAddrWithPort(currentAddr, portRaw string) string {
	port := strings.TrimSpace(portRaw)
	if port == "" {
		return currentAddr
	}
	if _, err := strconv.Atoi(port); err != nil {
		return currentAddr
	}
	host := "0.0.0.0"
	parts := strings.Split(strings.TrimSpace(currentAddr), ":")
	if len(parts) > 1 {
		host = strings.Join(parts[:len(parts)-1], ":")
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host + ":" + port
}

func filepathJoin(base, leaf string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return leaf
	}
	base = strings.TrimRight(base, "/\\")
	return base + string(os.PathSeparator) + leaf
}
