package observability

import (
	"testing"

	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{AppName: "", Environment: "test", AppVersion: "1.2.3"})

	assert.Equal(t, "churnwatch", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.False(t, cfg.OtelEnabled)
	assert.True(t, cfg.Debug())
}

func TestLoadConfigFromTelemetrySettings(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:           "churnwatch",
		Environment:       "production",
		LogLevel:          "WARN",
		OtelEnabled:       true,
		OTLPProtocol:      "HTTP",
		OtelSamplingRatio: 4,
	})
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}
