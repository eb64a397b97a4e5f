package monitor

import (
	"fmt"
	"io"

	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
)

// WriteSummary renders a pass. Detailed output is the single-run report with
// customer IDs; the compact form is printed every monitoring interval.
func WriteSummary(w io.Writer, result PassResult, detailed bool) error {
	if result.Total == 0 {
		_, err := fmt.Fprintln(w, "No active customers to score.")
		return err
	}

	ew := &errWriter{w: w}
	rate := result.PredictedRate() * 100
	if detailed {
		ew.printf("\nTotal customers: %d\n", result.Total)
		ew.printf("Predicted to churn: %d (%.1f%%)\n", result.Predicted, rate)
	} else {
		ew.printf("Customers: %d, Churn predicted: %d (%.1f%%)\n", result.Total, result.Predicted, rate)
	}
	ew.printf("Risk - High: %d, Medium: %d, Low: %d\n",
		result.Tiers[risk.TierHigh], result.Tiers[risk.TierMedium], result.Tiers[risk.TierLow])

	if len(result.HighRisk) > 0 {
		if detailed {
			ew.printf("\nHigh risk customers:\n")
		} else {
			ew.printf("High risk:\n")
		}
		for _, s := range result.HighRisk {
			pct := s.Assessment.Probability * 100
			if detailed {
				ew.printf("  %s (ID: %d) - %.1f%%\n", s.Customer.Name, s.Customer.ID, pct)
			} else {
				ew.printf("  %s - %.1f%%\n", s.Customer.Name, pct)
			}
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
