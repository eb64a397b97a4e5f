package domain

import "errors"

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidAttribute = errors.New("invalid_attribute")
	ErrInvalidChurnDay  = errors.New("invalid_churn_day")
	ErrInvalidID        = errors.New("invalid_id")
	ErrEmptyUpdate      = errors.New("empty_update")
)
