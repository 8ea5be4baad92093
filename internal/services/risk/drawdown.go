package risk

import (
	"time"

	"github.com/bobmcallan/riskcore/internal/models"
)

// Drawdown computes the maximum peak-to-trough decline of the compounded
// wealth curve. MaxDrawdown is a positive loss fraction; a monotonically
// rising curve yields zero. Dates may be nil; when given they must align
// with the returns and are echoed back as peak/trough timestamps.
func (e *Engine) Drawdown(portfolioReturns []float64, dates []time.Time) (*models.DrawdownReport, error) {
	if err := validateSeries(portfolioReturns); err != nil {
		return nil, err
	}
	if dates != nil && len(dates) != len(portfolioReturns) {
		return nil, &models.InvalidInputError{Index: -1, Reason: "date axis length does not match return series"}
	}

	curve := make([]float64, len(portfolioReturns))
	wealth := 1.0
	for i, r := range portfolioReturns {
		wealth *= 1 + r
		curve[i] = wealth
	}

	report := &models.DrawdownReport{Curve: curve}
	peak, peakIdx := curve[0], 0
	for i, v := range curve {
		if v > peak {
			peak, peakIdx = v, i
		}
		dd := (peak - v) / peak
		if dd > report.MaxDrawdown {
			report.MaxDrawdown = dd
			report.PeakIndex = peakIdx
			report.TroughIndex = i
		}
	}

	if dates != nil {
		report.PeakDate = dates[report.PeakIndex]
		report.TroughDate = dates[report.TroughIndex]
	}
	return report, nil
}
