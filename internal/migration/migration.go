package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrator owns the customers schema. Postgres uses the embedded SQL migrations;
// other dialects use gorm AutoMigrate.
type Migrator struct {
	db          *gorm.DB
	dbType      string
	autoMigrate bool
	log         *zap.Logger
}

func New(db *gorm.DB, cfg config.Config, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{
		db:          db,
		dbType:      cfg.DBType,
		autoMigrate: cfg.DBAutoMigrate,
		log:         log.Named("migration"),
	}
}

func (m *Migrator) Up() error {
	if m.dbType == "postgres" {
		sqlDB, err := m.db.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB, false)
	}
	if !m.autoMigrate {
		m.log.Info("auto migrate disabled", zap.String("dialect", m.dbType))
		return nil
	}
	return m.db.AutoMigrate(&domain.Customer{})
}

// Reset drops and recreates the customers table.
func (m *Migrator) Reset() error {
	m.log.Warn("resetting customer store", zap.String("dialect", m.dbType))
	if m.dbType == "postgres" {
		sqlDB, err := m.db.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB, true)
	}
	if err := m.db.Migrator().DropTable(&domain.Customer{}); err != nil {
		return fmt.Errorf("drop customers: %w", err)
	}
	return m.db.AutoMigrate(&domain.Customer{})
}

// RunMigrations applies the embedded migrations, rolling everything back first when reset is set.
func RunMigrations(db *sql.DB, reset bool) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if reset {
		downErr := migrator.Down()
		if downErr != nil && !errors.Is(downErr, migrate.ErrNoChange) {
			return fmt.Errorf("roll back migrations: %w", downErr)
		}
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
