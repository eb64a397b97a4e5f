package migration

import (
	"context"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestUpCreatesCustomersTable(t *testing.T) {
	db := openTestDB(t)
	m := New(db, config.Config{DBType: "sqlite", DBAutoMigrate: true}, zap.NewNop())

	require.NoError(t, m.Up())
	assert.True(t, db.Migrator().HasTable(&domain.Customer{}))
	assert.True(t, db.Migrator().HasIndex(&domain.Customer{}, "Churned"))
}

func TestUpRespectsAutoMigrateFlag(t *testing.T) {
	db := openTestDB(t)
	m := New(db, config.Config{DBType: "sqlite", DBAutoMigrate: false}, zap.NewNop())

	require.NoError(t, m.Up())
	assert.False(t, db.Migrator().HasTable(&domain.Customer{}))
}

func TestResetEmptiesStore(t *testing.T) {
	db := openTestDB(t)
	m := New(db, config.Config{DBType: "sqlite", DBAutoMigrate: true}, zap.NewNop())
	require.NoError(t, m.Up())

	repo := repository.Provide()
	require.NoError(t, repo.Insert(context.Background(), db, &domain.Customer{
		Name:            "Customer_1",
		CreditScore:     500,
		Age:             20,
		NumOfProducts:   1,
		EstimatedSalary: 20000,
		Geography:       domain.GeographyFrance,
		Gender:          domain.GenderMale,
		ChurnDay:        domain.FormatChurnDay(time.Now()),
	}))

	require.NoError(t, m.Reset())
	count, err := repo.Count(context.Background(), db, domain.Filter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, "migrations/*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
