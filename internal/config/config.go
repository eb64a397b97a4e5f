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

	// Telemetry. OTLPProtocol honours OTEL_EXPORTER_OTLP_TRACES_PROTOCOL over the
	// generic OTEL_EXPORTER_OTLP_PROTOCOL.
	LogLevel          string
	LogFormat         string
	OtelEnabled       bool
	OTLPEndpoint      string
	OTLPProtocol      string
	OtelSamplingRatio float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	SimulationInterval time.Duration
	ScoringInterval    time.Duration

	ModelPath string
	ExportDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RiskCacheTTL  time.Duration

	HTTPAddr string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:            getenv("APP_SERVICE", "churnwatch"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development")),
		LogLevel:           strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getenv("LOG_FORMAT", "json")),
		OtelEnabled:        getenvBool("OTEL_ENABLED", false),
		OTLPEndpoint:       getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol:       strings.ToLower(getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelSamplingRatio:  getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		DBType:             strings.ToLower(getenv("DATABASE_TYPE", "sqlite")),
		DBHost:             getenv("DATABASE_HOST", "localhost"),
		DBPort:             getenv("DATABASE_PORT", "5432"),
		DBName:             getenv("DATABASE_NAME", "churnwatch"),
		DBUser:             getenv("DATABASE_USER", "postgres"),
		DBPassword:         getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:          getenv("DATABASE_SSLMODE", "disable"),
		DBPath:             getenv("DATABASE_PATH", "bank_sim.db"),
		DBMaxIdleConn:      getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:      getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime:  getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:  getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:      getenvBool("DATABASE_AUTO_MIGRATE", true),
		SimulationInterval: getenvDuration("SIMULATION_INTERVAL", 10*time.Second),
		ScoringInterval:    getenvDuration("SCORING_INTERVAL", 10*time.Second),
		ModelPath:          getenv("MODEL_PATH", "churn_risk_model.yaml"),
		ExportDir:          getenv("EXPORT_DIR", "."),
		RedisAddr:          strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),
		RedisDB:            getenvInt("REDIS_DB", 0),
		RiskCacheTTL:       getenvDuration("RISK_CACHE_TTL", 10*time.Minute),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewSimulationConfigHolder),
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
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

func getenvFloat(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
