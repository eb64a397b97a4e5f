package domain

import (
	"context"

	"gorm.io/gorm"
)

type Status string

const (
	StatusAll     Status = ""
	StatusActive  Status = "active"
	StatusChurned Status = "churned"
)

type Filter struct {
	Status Status
}

// Attributes is a partial update; nil fields are left untouched.
type Attributes struct {
	Balance        *float64
	Tenure         *int
	IsActiveMember *bool
	CreditScore    *int
	Churned        *bool
}

// Repository is the record store consumed by the simulation and scoring tracks.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	// List returns customers ordered by id.
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]Customer, error)
	Count(ctx context.Context, db *gorm.DB, filter Filter) (int64, error)
	// UpdateActive applies attrs in one statement, only while the customer has not churned.
	// It reports whether a row was changed.
	UpdateActive(ctx context.Context, db *gorm.DB, id int64, attrs Attributes) (bool, error)
}
