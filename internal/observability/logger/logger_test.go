package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/churnwatch/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewBuildsConsoleLogger(t *testing.T) {
	log, err := New(nil, Config{Level: "debug", Format: "console", ServiceName: "churnwatch"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestEncodingFollowsFormatThenDebug(t *testing.T) {
	assert.Equal(t, "json", encoding("JSON", true))
	assert.Equal(t, "console", encoding("", true))
	assert.Equal(t, "json", encoding("", false))
	assert.Equal(t, "console", encoding("console", false))
}

func TestWithContextAddsJobFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithJob(context.Background(), "simulation_tick", "42")
	WithContext(ctx, base).Info("tick")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "simulation_tick", fields["job"])
	assert.Equal(t, "42", fields["run_id"])
}
