package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "Postgres")
	t.Setenv("SCORING_INTERVAL", "3s")
	t.Setenv("SIMULATION_INTERVAL", "not-a-duration")
	t.Setenv("DATABASE_AUTO_MIGRATE", "off")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 3*time.Second, cfg.ScoringInterval)
	assert.Equal(t, 10*time.Second, cfg.SimulationInterval)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadTelemetryPrefersTracesProtocol(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")

	cfg := Load()
	assert.Equal(t, "http", cfg.OTLPProtocol)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.OtelSamplingRatio)
}
