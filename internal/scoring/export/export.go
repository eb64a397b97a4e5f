package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/smallbiznis/churnwatch/internal/scoring/monitor"
)

// Header lists the exported columns. The hidden churn instant is never exported.
var Header = []string{
	"id", "name", "CreditScore", "Age", "Tenure", "Balance", "NumOfProducts",
	"HasCrCard", "IsActiveMember", "EstimatedSalary", "Geography", "Gender", "churned",
	"churn_probability", "prediction", "risk_level", "recommendation",
}

// FileName returns churn_predictions_<YYYYMMDD_HHMMSS>.csv for at.
func FileName(at time.Time) string {
	return fmt.Sprintf("churn_predictions_%s.csv", at.Format("20060102_150405"))
}

// WriteCSV writes one line per scored customer in pass order.
func WriteCSV(w io.Writer, scored []monitor.Scored) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range scored {
		c, a := s.Customer, s.Assessment
		record := []string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			strconv.Itoa(c.CreditScore),
			strconv.Itoa(c.Age),
			strconv.Itoa(c.Tenure),
			formatFloat(c.Balance),
			strconv.Itoa(c.NumOfProducts),
			boolDigit(c.HasCrCard),
			boolDigit(c.IsActiveMember),
			formatFloat(c.EstimatedSalary),
			string(c.Geography),
			string(c.Gender),
			boolDigit(c.Churned),
			formatFloat(a.Probability),
			strconv.Itoa(a.Decision),
			string(a.Tier),
			a.Recommendation,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToFile writes result into dir and returns the file path.
func ToFile(dir string, result monitor.PassResult) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(result.At))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, result.Scored); err != nil {
		f.Close()
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
