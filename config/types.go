package config

import "time"

type AppConfig struct {
	DBDriver        string        `yaml:"db_driver" env:"SECUREREPORT_DB_DRIVER" env-default:"postgres"`
	DBURL           string        `yaml:"db_url" env:"SECUREREPORT_DB_URL"`
	DBPath          string        `yaml:"db_path" env:"SECUREREPORT_DB_PATH"`
	ListenAddr      string        `yaml:"listen_addr" env:"SECUREREPORT_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	AppEnv          string        `yaml:"app_env" env:"SECUREREPORT_APP_ENV" env-default:"prod"`
	Pepper          string        `yaml:"pepper" env:"SECUREREPORT_PEPPER"`
	JWTSecret       string        `yaml:"jwt_secret" env:"SECUREREPORT_JWT_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"SECUREREPORT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"SECUREREPORT_REFRESH_TOKEN_TTL" env-default:"24h"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl" env:"SECUREREPORT_RESET_TOKEN_TTL" env-default:"30m"`
	AdminPassword   string        `yaml:"admin_password" env:"SECUREREPORT_ADMIN_PASSWORD"`
	TLSEnabled      bool          `yaml:"tls_enabled" env:"SECUREREPORT_TLS_ENABLED"`
	TLSCert         string        `yaml:"tls_cert" env:"SECUREREPORT_TLS_CERT"`
	TLSKey          string        `yaml:"tls_key" env:"SECUREREPORT_TLS_KEY"`

	CORS          CORSConfig          `yaml:"cors"`
	Security      SecurityConfig      `yaml:"security"`
	Analytics     AnalyticsConfig     `yaml:"analytics"`
	Attachments   AttachmentsConfig   `yaml:"attachments"`
	Maintenance   MaintenanceConfig   `yaml:"maintenance"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

func (c *AppConfig) IsDev() bool {
	if c == nil {
		return false
	}
	return c.AppEnv == "dev"
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"SECUREREPORT_CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"https://securereport.netlify.app"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"SECUREREPORT_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `yaml:"max_age" env:"SECUREREPORT_CORS_MAX_AGE" env-default:"300"`
}

type SecurityConfig struct {
	TrustedProxies   []string      `yaml:"trusted_proxies" env:"SECUREREPORT_TRUSTED_PROXIES" env-separator:","`
	TLSOffloaded     bool          `yaml:"tls_offloaded" env:"SECUREREPORT_TLS_OFFLOADED"`
	LoginRateLimit   int           `yaml:"login_rate_limit" env:"SECUREREPORT_LOGIN_RATE_LIMIT" env-default:"5"`
	LoginRateWindow  time.Duration `yaml:"login_rate_window" env:"SECUREREPORT_LOGIN_RATE_WINDOW" env-default:"1m"`
	IntakeRateLimit  int           `yaml:"intake_rate_limit" env:"SECUREREPORT_INTAKE_RATE_LIMIT" env-default:"20"`
	IntakeRateWindow time.Duration `yaml:"intake_rate_window" env:"SECUREREPORT_INTAKE_RATE_WINDOW" env-default:"1m"`
}

type AnalyticsConfig struct {
	Timezone    string `yaml:"timezone" env:"SECUREREPORT_ANALYTICS_TIMEZONE" env-default:"Africa/Cairo"`
	DefaultLang string `yaml:"default_lang" env:"SECUREREPORT_ANALYTICS_DEFAULT_LANG" env-default:"ar"`
}

type AttachmentsConfig struct {
	StorageDir     string `yaml:"storage_dir" env:"SECUREREPORT_ATTACHMENTS_DIR" env-default:"data/attachments"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"SECUREREPORT_ATTACHMENTS_MAX_UPLOAD_BYTES" env-default:"26214400"`
}

type MaintenanceConfig struct {
	Enabled          bool          `yaml:"enabled" env:"SECUREREPORT_MAINTENANCE_ENABLED" env-default:"true"`
	Schedule         string        `yaml:"schedule" env:"SECUREREPORT_MAINTENANCE_SCHEDULE" env-default:"*/15 * * * *"`
	SessionRetention time.Duration `yaml:"session_retention" env:"SECUREREPORT_MAINTENANCE_SESSION_RETENTION" env-default:"168h"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"SECUREREPORT_METRICS_ENABLED" env-default:"true"`
	MetricsToken   string `yaml:"metrics_token" env:"SECUREREPORT_METRICS_TOKEN"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"SECUREREPORT_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"SECUREREPORT_LOG_FORMAT" env-default:"json"`
}
