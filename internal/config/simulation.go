package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

func (r IntRange) valid() bool {
	return r.Min <= r.Max
}

// SimulationConfig tunes how customers are generated and how they drift each tick.
type SimulationConfig struct {
	CreditScore IntRange `mapstructure:"creditScore"`
	Age         IntRange `mapstructure:"age"`
	Tenure      IntRange `mapstructure:"tenure"`
	Balance     IntRange `mapstructure:"balance"`
	Products    IntRange `mapstructure:"products"`
	Salary      IntRange `mapstructure:"salary"`

	// ChurnOffset is measured in ChurnUnit steps after creation.
	ChurnOffset IntRange      `mapstructure:"churnOffset"`
	ChurnUnit   time.Duration `mapstructure:"churnUnit"`

	BalanceDelta          IntRange `mapstructure:"balanceDelta"`
	CreditScoreDelta      IntRange `mapstructure:"creditScoreDelta"`
	ActiveFlipProbability float64  `mapstructure:"activeFlipProbability"`
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		CreditScore:           IntRange{Min: 350, Max: 850},
		Age:                   IntRange{Min: 18, Max: 70},
		Tenure:                IntRange{Min: 0, Max: 10},
		Balance:               IntRange{Min: 0, Max: 250000},
		Products:              IntRange{Min: 1, Max: 4},
		Salary:                IntRange{Min: 20000, Max: 150000},
		ChurnOffset:           IntRange{Min: 1, Max: 10},
		ChurnUnit:             time.Minute,
		BalanceDelta:          IntRange{Min: -2000, Max: 5000},
		CreditScoreDelta:      IntRange{Min: -10, Max: 10},
		ActiveFlipProbability: 0.1,
	}
}

type SimulationConfigHolder struct {
	current atomic.Value // holds SimulationConfig
}

// NewSimulationConfigHolder reads simulation.yml when present and keeps it hot-reloaded.
func NewSimulationConfigHolder(log *zap.Logger) (*SimulationConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("simulation-config")

	v := viper.New()
	v.SetConfigName("simulation")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/churnwatch")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHURNWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info("simulation config not found, using defaults")
		return NewStaticSimulationConfig(DefaultSimulationConfig()), nil
	}

	cfg, err := decodeSimulationConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &SimulationConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeSimulationConfig(v)
		if err != nil {
			log.Warn("simulation config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("simulation config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticSimulationConfig returns a holder that never reloads.
func NewStaticSimulationConfig(cfg SimulationConfig) *SimulationConfigHolder {
	holder := &SimulationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *SimulationConfigHolder) Get() SimulationConfig {
	return h.current.Load().(SimulationConfig)
}

func decodeSimulationConfig(v *viper.Viper) (SimulationConfig, error) {
	cfg := DefaultSimulationConfig()
	// Keys may sit under a simulation: section or at the top level of the file.
	if v.IsSet("simulation") {
		if err := v.UnmarshalKey("simulation", &cfg); err != nil {
			return SimulationConfig{}, err
		}
	} else if err := v.Unmarshal(&cfg); err != nil {
		return SimulationConfig{}, err
	}
	if err := ValidateSimulationConfig(cfg); err != nil {
		return SimulationConfig{}, err
	}
	return cfg, nil
}

func ValidateSimulationConfig(cfg SimulationConfig) error {
	ranges := map[string]IntRange{
		"creditScore":      cfg.CreditScore,
		"age":              cfg.Age,
		"tenure":           cfg.Tenure,
		"balance":          cfg.Balance,
		"products":         cfg.Products,
		"salary":           cfg.Salary,
		"churnOffset":      cfg.ChurnOffset,
		"balanceDelta":     cfg.BalanceDelta,
		"creditScoreDelta": cfg.CreditScoreDelta,
	}
	for name, r := range ranges {
		if !r.valid() {
			return fmt.Errorf("simulation.%s: min %d exceeds max %d", name, r.Min, r.Max)
		}
	}
	if cfg.Age.Min < 18 || cfg.Age.Max > 70 {
		return errors.New("simulation.age must stay within 18..70")
	}
	if cfg.CreditScore.Min < 300 || cfg.CreditScore.Max > 850 {
		return errors.New("simulation.creditScore must stay within 300..850")
	}
	if cfg.Tenure.Min < 0 || cfg.Balance.Min < 0 {
		return errors.New("simulation.tenure and simulation.balance cannot be negative")
	}
	if cfg.Products.Min < 1 || cfg.Products.Max > 4 {
		return errors.New("simulation.products must stay within 1..4")
	}
	if cfg.ChurnOffset.Min < 1 {
		return errors.New("simulation.churnOffset.min must be at least 1")
	}
	if cfg.ChurnUnit <= 0 {
		return errors.New("simulation.churnUnit must be positive")
	}
	if cfg.ActiveFlipProbability < 0 || cfg.ActiveFlipProbability > 1 {
		return errors.New("simulation.activeFlipProbability must be within 0..1")
	}
	return nil
}
