package domain

import (
	"fmt"
	"time"
)

type Geography string

const (
	GeographyFrance  Geography = "France"
	GeographyGermany Geography = "Germany"
	GeographySpain   Geography = "Spain"
)

// Geographies lists categories in encoding order; the first entry is the one-hot reference.
var Geographies = []Geography{GeographyFrance, GeographyGermany, GeographySpain}

type Gender string

const (
	GenderFemale Gender = "Female"
	GenderMale   Gender = "Male"
)

// Genders lists categories in encoding order; the first entry is the one-hot reference.
var Genders = []Gender{GenderFemale, GenderMale}

const (
	MinCreditScore = 300
	MaxCreditScore = 850
	MinAge         = 18
	MaxAge         = 70
	MinProducts    = 1
	MaxProducts    = 4
)

// Customer is one simulated bank customer. ChurnDay and Churned are hidden ground truth.
type Customer struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	CreditScore     int       `gorm:"not null" json:"credit_score"`
	Age             int       `gorm:"not null" json:"age"`
	Tenure          int       `gorm:"not null" json:"tenure"`
	Balance         float64   `gorm:"not null" json:"balance"`
	NumOfProducts   int       `gorm:"not null" json:"num_of_products"`
	HasCrCard       bool      `gorm:"not null" json:"has_cr_card"`
	IsActiveMember  bool      `gorm:"not null" json:"is_active_member"`
	EstimatedSalary float64   `gorm:"not null" json:"estimated_salary"`
	Geography       Geography `gorm:"type:varchar(16);not null" json:"geography"`
	Gender          Gender    `gorm:"type:varchar(8);not null" json:"gender"`
	ChurnDay        string    `gorm:"column:churn_day;not null" json:"-"`
	Churned         bool      `gorm:"not null;default:false;index" json:"churned"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// ChurnTime parses the stored churn instant.
func (c Customer) ChurnTime() (time.Time, error) {
	at, err := time.Parse(time.RFC3339Nano, c.ChurnDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: customer %d: %q", ErrInvalidChurnDay, c.ID, c.ChurnDay)
	}
	return at, nil
}

// FormatChurnDay renders an instant in the stored churn_day format.
func FormatChurnDay(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Validate checks the documented attribute domains.
func (c Customer) Validate() error {
	switch {
	case c.Name == "":
		return ErrInvalidName
	case c.Age < MinAge || c.Age > MaxAge:
		return fmt.Errorf("%w: age %d", ErrInvalidAttribute, c.Age)
	case c.CreditScore < MinCreditScore || c.CreditScore > MaxCreditScore:
		return fmt.Errorf("%w: credit score %d", ErrInvalidAttribute, c.CreditScore)
	case c.Tenure < 0:
		return fmt.Errorf("%w: tenure %d", ErrInvalidAttribute, c.Tenure)
	case c.Balance < 0:
		return fmt.Errorf("%w: balance %.2f", ErrInvalidAttribute, c.Balance)
	case c.NumOfProducts < MinProducts || c.NumOfProducts > MaxProducts:
		return fmt.Errorf("%w: products %d", ErrInvalidAttribute, c.NumOfProducts)
	case !validGeography(c.Geography):
		return fmt.Errorf("%w: geography %q", ErrInvalidAttribute, c.Geography)
	case !validGender(c.Gender):
		return fmt.Errorf("%w: gender %q", ErrInvalidAttribute, c.Gender)
	}
	if _, err := c.ChurnTime(); err != nil {
		return err
	}
	return nil
}

func validGeography(g Geography) bool {
	for _, candidate := range Geographies {
		if candidate == g {
			return true
		}
	}
	return false
}

func validGender(g Gender) bool {
	for _, candidate := range Genders {
		if candidate == g {
			return true
		}
	}
	return false
}

// ClampCreditScore keeps a score inside [MinCreditScore, MaxCreditScore].
func ClampCreditScore(score int) int {
	return min(max(score, MinCreditScore), MaxCreditScore)
}
