package migration

import (
	"go.uber.org/fx"
)

var Module = fx.Module("migrations",
	fx.Provide(New),
	fx.Invoke(func(m *Migrator) error {
		return m.Up()
	}),
)
