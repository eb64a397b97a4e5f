package features

import (
	"slices"

	"github.com/smallbiznis/churnwatch/internal/customer/domain"
)

const (
	ColCreditScore          = "CreditScore"
	ColAge                  = "Age"
	ColTenure               = "Tenure"
	ColBalance              = "Balance"
	ColNumOfProducts        = "NumOfProducts"
	ColHasCrCard            = "HasCrCard"
	ColIsActiveMember       = "IsActiveMember"
	ColEstimatedSalary      = "EstimatedSalary"
	ColBalanceToSalaryRatio = "BalanceToSalaryRatio"
	ColProductsPerYear      = "ProductsPerYear"
	ColActiveFewProducts    = "ActiveFewProducts"
	ColHighBalanceInactive  = "HighBalanceInactive"
)

// categorical fields in encoding order; the first category of each is the dropped reference.
var categoricals = []struct {
	field      string
	categories []string
}{
	{"Geography", geographyLabels()},
	{"Gender", genderLabels()},
	{"AgeGroup", ageBuckets.labels()},
	{"TenureGroup", tenureBuckets.labels()},
	{"CreditScoreGroup", creditScoreBuckets.labels()},
}

// Engineer turns a batch of customers into feature rows.
type Engineer struct{}

func NewEngineer() *Engineer {
	return &Engineer{}
}

// Build computes batch statistics first, then one row per customer in input order.
// HighBalanceInactive depends on the batch median, so a row is only meaningful
// alongside the batch it was built with.
func (e *Engineer) Build(customers []domain.Customer) []Row {
	if len(customers) == 0 {
		return nil
	}

	balances := make([]float64, len(customers))
	for i, c := range customers {
		balances[i] = c.Balance
	}
	balanceMedian := Median(balances)

	rows := make([]Row, len(customers))
	for i, c := range customers {
		rows[i] = e.row(c, balanceMedian)
	}
	return rows
}

func (e *Engineer) row(c domain.Customer, balanceMedian float64) Row {
	tenure := float64(c.Tenure)
	products := float64(c.NumOfProducts)

	row := Row{
		ColCreditScore:          float64(c.CreditScore),
		ColAge:                  float64(c.Age),
		ColTenure:               tenure,
		ColBalance:              c.Balance,
		ColNumOfProducts:        products,
		ColHasCrCard:            boolFloat(c.HasCrCard),
		ColIsActiveMember:       boolFloat(c.IsActiveMember),
		ColEstimatedSalary:      c.EstimatedSalary,
		ColBalanceToSalaryRatio: c.Balance / (c.EstimatedSalary + 1),
		ColProductsPerYear:      products / (tenure + 1),
		ColActiveFewProducts:    boolFloat(c.IsActiveMember && c.NumOfProducts <= 1),
		ColHighBalanceInactive:  boolFloat(c.Balance > balanceMedian && !c.IsActiveMember),
	}

	ageGroup, _ := AgeGroup(c.Age)
	tenureGroup, _ := TenureGroup(c.Tenure)
	creditGroup, _ := CreditScoreGroup(c.CreditScore)
	values := map[string]string{
		"Geography":        string(c.Geography),
		"Gender":           string(c.Gender),
		"AgeGroup":         ageGroup,
		"TenureGroup":      tenureGroup,
		"CreditScoreGroup": creditGroup,
	}
	for _, cat := range categoricals {
		for _, category := range cat.categories[1:] {
			row[dummy(cat.field, category)] = boolFloat(values[cat.field] == category)
		}
	}
	return row
}

// Columns lists every column Build can emit, in a stable order.
func Columns() []string {
	cols := []string{
		ColCreditScore, ColAge, ColTenure, ColBalance, ColNumOfProducts, ColHasCrCard,
		ColIsActiveMember, ColEstimatedSalary, ColBalanceToSalaryRatio, ColProductsPerYear,
		ColActiveFewProducts, ColHighBalanceInactive,
	}
	for _, cat := range categoricals {
		for _, category := range cat.categories[1:] {
			cols = append(cols, dummy(cat.field, category))
		}
	}
	return cols
}

// Median returns the middle value, averaging the two middle values for even counts.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func dummy(field, category string) string {
	return field + "_" + category
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func geographyLabels() []string {
	out := make([]string, len(domain.Geographies))
	for i, g := range domain.Geographies {
		out[i] = string(g)
	}
	return out
}

func genderLabels() []string {
	out := make([]string, len(domain.Genders))
	for i, g := range domain.Genders {
		out[i] = string(g)
	}
	return out
}
