package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSimulationConfigIsValid(t *testing.T) {
	require.NoError(t, ValidateSimulationConfig(DefaultSimulationConfig()))
}

func TestValidateSimulationConfigRejectsBadRanges(t *testing.T) {
	cases := map[string]func(*SimulationConfig){
		"inverted":       func(c *SimulationConfig) { c.Age = IntRange{Min: 70, Max: 18} },
		"credit_floor":   func(c *SimulationConfig) { c.CreditScore.Min = 200 },
		"age_floor":      func(c *SimulationConfig) { c.Age = IntRange{Min: 10, Max: 80} },
		"age_ceiling":    func(c *SimulationConfig) { c.Age.Max = 71 },
		"churn_now":      func(c *SimulationConfig) { c.ChurnOffset.Min = 0 },
		"zero_unit":      func(c *SimulationConfig) { c.ChurnUnit = 0 },
		"probability":    func(c *SimulationConfig) { c.ActiveFlipProbability = 1.5 },
		"products":       func(c *SimulationConfig) { c.Products.Max = 5 },
		"negative_floor": func(c *SimulationConfig) { c.Balance.Min = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultSimulationConfig()
			mutate(&cfg)
			assert.Error(t, ValidateSimulationConfig(cfg))
		})
	}
}

func TestDecodeSimulationConfigOverridesOnlyGivenKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simulation.yml")
	body := []byte("simulation:\n  churnUnit: 30s\n  balanceDelta:\n    min: -100\n    max: 100\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeSimulationConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ChurnUnit)
	assert.Equal(t, IntRange{Min: -100, Max: 100}, cfg.BalanceDelta)
	assert.Equal(t, DefaultSimulationConfig().CreditScore, cfg.CreditScore)
}

func TestStaticHolderReturnsConfig(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.ActiveFlipProbability = 0
	holder := NewStaticSimulationConfig(cfg)
	assert.Equal(t, cfg, holder.Get())
}

func readSimulationFile(t *testing.T, body string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulation.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return v
}

func TestDecodeSimulationConfigAcceptsTopLevelKeys(t *testing.T) {
	v := readSimulationFile(t, "activeFlipProbability: 0.5\nchurnUnit: 5s\n")

	cfg, err := decodeSimulationConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.ActiveFlipProbability)
	assert.Equal(t, 5*time.Second, cfg.ChurnUnit)
	assert.Equal(t, DefaultSimulationConfig().Age, cfg.Age)
}

func TestShippedExampleConfigIsRead(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("..", "..", "simulation.example.yml"))
	require.NoError(t, err)

	// Change one value so the test fails if the file is ignored and defaults win.
	edited := strings.Replace(string(body), "activeFlipProbability: 0.1", "activeFlipProbability: 0.25", 1)
	require.NotEqual(t, string(body), edited)

	cfg, err := decodeSimulationConfig(readSimulationFile(t, edited))
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.ActiveFlipProbability)
	assert.Equal(t, IntRange{Min: -2000, Max: 5000}, cfg.BalanceDelta)
	assert.Equal(t, time.Minute, cfg.ChurnUnit)
}
