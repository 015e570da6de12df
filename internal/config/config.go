package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Extractor ExtractorConfig
	CORS      CORSConfig
	Email     EmailConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	// PublicBaseURL is the externally reachable base URL used to build
	// shareable invoice links (and the QR code link payload).
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// S3Config holds object storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// ExtractorConfig holds extraction model settings. There is a single
// provider and no retry policy: timeouts and provider failures surface to
// the caller as-is.
type ExtractorConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings for the authenticated API. The public
// share endpoints are always open, independent of this list.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the
// PARSEMYBILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARSEMYBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.public_base_url", "http://localhost:8080")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "parsemybill")
	v.SetDefault("db.password", "parsemybill_secret")
	v.SetDefault("db.name", "parsemybill_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "parsemybill")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "parsemybill-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 10)
	v.SetDefault("s3.presign_expiry", 3600)

	// Extractor defaults
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "gemini-2.0-flash")
	v.SetDefault("extractor.timeout_secs", 120)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@parsemybill.app")
	v.SetDefault("email.from_name", "ParseMyBill")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":            "PARSEMYBILL_SERVER_PORT",
		"server.read_timeout":    "PARSEMYBILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":   "PARSEMYBILL_SERVER_WRITE_TIMEOUT",
		"server.environment":     "PARSEMYBILL_SERVER_ENVIRONMENT",
		"server.public_base_url": "PARSEMYBILL_SERVER_PUBLIC_BASE_URL",
		"db.host":                "PARSEMYBILL_DB_HOST",
		"db.port":                "PARSEMYBILL_DB_PORT",
		"db.user":                "PARSEMYBILL_DB_USER",
		"db.password":            "PARSEMYBILL_DB_PASSWORD",
		"db.name":                "PARSEMYBILL_DB_NAME",
		"db.sslmode":             "PARSEMYBILL_DB_SSLMODE",
		"db.max_open":            "PARSEMYBILL_DB_MAX_OPEN",
		"db.max_idle":            "PARSEMYBILL_DB_MAX_IDLE",
		"jwt.secret":             "PARSEMYBILL_JWT_SECRET",
		"jwt.access_expiry":      "PARSEMYBILL_JWT_ACCESS_EXPIRY",
		"jwt.refresh_expiry":     "PARSEMYBILL_JWT_REFRESH_EXPIRY",
		"jwt.issuer":             "PARSEMYBILL_JWT_ISSUER",
		"s3.region":              "PARSEMYBILL_S3_REGION",
		"s3.bucket":              "PARSEMYBILL_S3_BUCKET",
		"s3.endpoint":            "PARSEMYBILL_S3_ENDPOINT",
		"s3.access_key":          "PARSEMYBILL_S3_ACCESS_KEY",
		"s3.secret_key":          "PARSEMYBILL_S3_SECRET_KEY",
		"s3.max_file_size_mb":    "PARSEMYBILL_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":      "PARSEMYBILL_S3_PRESIGN_EXPIRY",
		"extractor.api_key":      "PARSEMYBILL_EXTRACTOR_API_KEY",
		"extractor.model":        "PARSEMYBILL_EXTRACTOR_MODEL",
		"extractor.timeout_secs": "PARSEMYBILL_EXTRACTOR_TIMEOUT_SECS",
		"cors.allowed_origins":   "PARSEMYBILL_CORS_ALLOWED_ORIGINS",
		"email.provider":         "PARSEMYBILL_EMAIL_PROVIDER",
		"email.region":           "PARSEMYBILL_EMAIL_REGION",
		"email.from_address":     "PARSEMYBILL_EMAIL_FROM_ADDRESS",
		"email.from_name":        "PARSEMYBILL_EMAIL_FROM_NAME",
		"email.frontend_url":     "PARSEMYBILL_EMAIL_FRONTEND_URL",
		"log.level":              "PARSEMYBILL_LOG_LEVEL",
		"log.format":             "PARSEMYBILL_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if
	// PARSEMYBILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PARSEMYBILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		PublicBaseURL: strings.TrimRight(v.GetString("server.public_base_url"), "/"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Extractor = ExtractorConfig{
		APIKey:      v.GetString("extractor.api_key"),
		Model:       v.GetString("extractor.model"),
		TimeoutSecs: v.GetInt("extractor.timeout_secs"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
