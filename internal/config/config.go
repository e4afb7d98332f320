package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ServiceToken authenticates trusted backend-to-backend callers
	// (order notifications). Empty disables the service-role surface.
	ServiceToken string

	// AuthIssuerURL points at the OIDC issuer that signs owner tokens.
	// Empty falls back to the static token table (development only).
	AuthIssuerURL    string
	AuthAudience     string
	AuthStaticTokens string

	BillingWebhookSecret string
	BillingSuccessURL    string
	BillingCancelURL     string

	OTelEnabled          bool
	OTelExporterEndpoint string
	OTelExporterProtocol string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "opinio"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "opinio"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: time.Duration(getenvInt("DATABASE_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:       getenvInt("REDIS_DB", 0),

		ServiceToken: strings.TrimSpace(getenv("SERVICE_TOKEN", "")),

		AuthIssuerURL:    strings.TrimSpace(getenv("AUTH_ISSUER_URL", "")),
		AuthAudience:     strings.TrimSpace(getenv("AUTH_AUDIENCE", "")),
		AuthStaticTokens: strings.TrimSpace(getenv("AUTH_STATIC_TOKENS", "")),

		BillingWebhookSecret: strings.TrimSpace(getenv("BILLING_WEBHOOK_SECRET", "")),
		BillingSuccessURL:    getenv("BILLING_SUCCESS_URL", "http://localhost:3000/dashboard?checkout=success"),
		BillingCancelURL:     getenv("BILLING_CANCEL_URL", "http://localhost:3000/dashboard/settings"),

		OTelEnabled:          getenvBool("OTEL_ENABLED", false),
		OTelExporterEndpoint: strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		OTelExporterProtocol: strings.ToLower(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// Module wires configuration loading.
var Module = fx.Module("config",
	fx.Provide(Load),
)
