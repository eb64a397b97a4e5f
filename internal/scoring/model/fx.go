package model

import (
	"github.com/smallbiznis/churnwatch/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scoring.model",
	fx.Provide(Provide),
)

// Provide loads the artifact at startup so a missing or broken model fails fx start.
func Provide(cfg config.Config, log *zap.Logger) (Bundle, error) {
	bundle, err := Load(cfg.ModelPath)
	if err != nil {
		return Bundle{}, err
	}
	log.Named("scoring.model").Info("model loaded",
		zap.String("path", cfg.ModelPath),
		zap.Int("features", bundle.Schema.Len()),
		zap.Float64("threshold", bundle.Threshold),
	)
	return bundle, nil
}
