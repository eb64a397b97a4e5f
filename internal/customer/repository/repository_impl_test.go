package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))
	return db
}

func newCustomer(name string, churned bool) *domain.Customer {
	return &domain.Customer{
		Name:            name,
		CreditScore:     600,
		Age:             40,
		Tenure:          2,
		Balance:         1000,
		NumOfProducts:   1,
		EstimatedSalary: 40000,
		Geography:       domain.GeographyFrance,
		Gender:          domain.GenderMale,
		ChurnDay:        domain.FormatChurnDay(time.Now().Add(time.Hour)),
		Churned:         churned,
	}
}

func TestInsertAssignsIDAndListOrdersByID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := Provide()

	for i := 1; i <= 3; i++ {
		c := newCustomer(fmt.Sprintf("Customer_%d", i), false)
		require.NoError(t, r.Insert(ctx, db, c))
		assert.Equal(t, int64(i), c.ID)
	}

	items, err := r.List(ctx, db, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Customer_1", items[0].Name)
	assert.Equal(t, "Customer_3", items[2].Name)
}

func TestFilterByStatus(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := Provide()

	require.NoError(t, r.Insert(ctx, db, newCustomer("a", false)))
	require.NoError(t, r.Insert(ctx, db, newCustomer("b", true)))
	require.NoError(t, r.Insert(ctx, db, newCustomer("c", false)))

	active, err := r.List(ctx, db, domain.Filter{Status: domain.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	churned, err := r.Count(ctx, db, domain.Filter{Status: domain.StatusChurned})
	require.NoError(t, err)
	assert.Equal(t, int64(1), churned)

	total, err := r.Count(ctx, db, domain.Filter{Status: domain.StatusAll})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestUpdateActiveIsPartialAndSkipsChurned(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := Provide()

	active := newCustomer("active", false)
	churned := newCustomer("churned", true)
	require.NoError(t, r.Insert(ctx, db, active))
	require.NoError(t, r.Insert(ctx, db, churned))

	tenure := 3
	ok, err := r.UpdateActive(ctx, db, active.ID, domain.Attributes{Tenure: &tenure})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UpdateActive(ctx, db, churned.ID, domain.Attributes{Tenure: &tenure})
	require.NoError(t, err)
	assert.False(t, ok)

	var got domain.Customer
	require.NoError(t, db.First(&got, active.ID).Error)
	assert.Equal(t, 3, got.Tenure)
	assert.Equal(t, float64(1000), got.Balance)

	var frozen domain.Customer
	require.NoError(t, db.First(&frozen, churned.ID).Error)
	assert.True(t, frozen.Churned)
	assert.Equal(t, 2, frozen.Tenure)
}

func TestUpdateActiveRejectsEmptyAndInvalid(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := Provide()

	_, err := r.UpdateActive(ctx, db, 0, domain.Attributes{})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = r.UpdateActive(ctx, db, 1, domain.Attributes{})
	assert.ErrorIs(t, err, domain.ErrEmptyUpdate)
}
