package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// sharpeVolTol is the standard deviation below which the ratio is treated
// as undefined rather than blown up to +-Inf.
const sharpeVolTol = 1e-12

// Sharpe computes the annualized Sharpe ratio of the portfolio return
// series against the annualized risk-free rate. A zero-volatility series
// fails with ZeroVolatilityError carrying the mean excess return, so
// callers can still report the sign of performance.
func (e *Engine) Sharpe(portfolioReturns []float64, params interfaces.RiskParams) (float64, error) {
	params, err := NormalizeParams(params)
	if err != nil {
		return 0, err
	}
	if err := validateSeries(portfolioReturns); err != nil {
		return 0, err
	}
	if len(portfolioReturns) < 2 {
		return 0, &models.InsufficientDataError{Required: 2, Actual: len(portfolioReturns), What: "Sharpe ratio"}
	}

	periodRf := params.RiskFreeRate / params.AnnualizationFactor
	excess := make([]float64, len(portfolioReturns))
	for i, r := range portfolioReturns {
		excess[i] = r - periodRf
	}

	meanExcess := stat.Mean(excess, nil)
	sd := stat.StdDev(excess, nil)
	if sd < sharpeVolTol {
		return 0, &models.ZeroVolatilityError{MeanExcess: meanExcess * params.AnnualizationFactor}
	}
	return meanExcess / sd * math.Sqrt(params.AnnualizationFactor), nil
}
