package repository

import (
	"context"

	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.Filter) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := applyFilter(db.WithContext(ctx).Model(&domain.Customer{}), filter).
		Order("id asc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.Filter) (int64, error) {
	var count int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Customer{}), filter).
		Count(&count).Error
	return count, err
}

func (r *repo) UpdateActive(ctx context.Context, db *gorm.DB, id int64, attrs domain.Attributes) (bool, error) {
	if id <= 0 {
		return false, domain.ErrInvalidID
	}
	values := attributeValues(attrs)
	if len(values) == 0 {
		return false, domain.ErrEmptyUpdate
	}

	res := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ? AND churned = ?", id, false).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func applyFilter(stmt *gorm.DB, filter domain.Filter) *gorm.DB {
	switch filter.Status {
	case domain.StatusActive:
		return stmt.Where("churned = ?", false)
	case domain.StatusChurned:
		return stmt.Where("churned = ?", true)
	default:
		return stmt
	}
}

func attributeValues(attrs domain.Attributes) map[string]any {
	values := map[string]any{}
	if attrs.Balance != nil {
		values["balance"] = *attrs.Balance
	}
	if attrs.Tenure != nil {
		values["tenure"] = *attrs.Tenure
	}
	if attrs.IsActiveMember != nil {
		values["is_active_member"] = *attrs.IsActiveMember
	}
	if attrs.CreditScore != nil {
		values["credit_score"] = *attrs.CreditScore
	}
	if attrs.Churned != nil {
		values["churned"] = *attrs.Churned
	}
	return values
}
