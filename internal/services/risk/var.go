package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// ParametricVaR computes Gaussian VaR and expected shortfall of the
// weighted portfolio return series: VaR_a = -(mu + z_a*sigma)*sqrt(horizon)
// with z_a the inverse normal CDF at the tail probability a = 1-confidence.
// Both figures follow the loss-positive convention.
func (e *Engine) ParametricVaR(portfolioReturns []float64, params interfaces.RiskParams) (models.VaREstimate, error) {
	params, err := NormalizeParams(params)
	if err != nil {
		return models.VaREstimate{}, err
	}
	if err := validateSeries(portfolioReturns); err != nil {
		return models.VaREstimate{}, err
	}
	if len(portfolioReturns) < 2 {
		return models.VaREstimate{}, &models.InsufficientDataError{Required: 2, Actual: len(portfolioReturns), What: "parametric VaR"}
	}

	alpha := 1 - params.Confidence
	mu := stat.Mean(portfolioReturns, nil)
	sigma := stat.StdDev(portfolioReturns, nil)
	scale := math.Sqrt(float64(params.HorizonDays))

	z := distuv.UnitNormal.Quantile(alpha)
	varEst := -(mu + z*sigma) * scale

	// Gaussian expected shortfall: ES_a = -(mu - sigma*phi(z_a)/a).
	phi := distuv.UnitNormal.Prob(z)
	cvar := -(mu - sigma*phi/alpha) * scale

	return models.VaREstimate{Method: "parametric", VaR: varEst, CVaR: cvar}, nil
}

// HistoricalVaR computes the empirical alpha-quantile VaR with linear
// interpolation between order statistics, and the expected shortfall as the
// mean of losses at or beyond that threshold. Requires at least ceil(1/alpha)
// observations.
func (e *Engine) HistoricalVaR(portfolioReturns []float64, params interfaces.RiskParams) (models.VaREstimate, error) {
	params, err := NormalizeParams(params)
	if err != nil {
		return models.VaREstimate{}, err
	}
	if err := validateSeries(portfolioReturns); err != nil {
		return models.VaREstimate{}, err
	}

	alpha := 1 - params.Confidence
	// The tolerance absorbs the float error in 1-confidence so exact
	// boundaries (0.2 tail over 5 observations) are not rejected.
	minObs := int(math.Ceil(1/alpha - 1e-9))
	if len(portfolioReturns) < minObs {
		return models.VaREstimate{}, &models.InsufficientDataError{Required: minObs, Actual: len(portfolioReturns), What: "historical VaR"}
	}

	varEst, cvar := empiricalTail(portfolioReturns, alpha)
	scale := math.Sqrt(float64(params.HorizonDays))

	return models.VaREstimate{Method: "historical", VaR: varEst * scale, CVaR: cvar * scale}, nil
}

// quantile interpolates the p-quantile of a sorted slice by placing order
// statistic i at cumulative probability i/(n-1), linear between brackets.
// Matches numpy.percentile's default.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// empiricalTail returns the loss-positive alpha-quantile and the mean loss
// at or beyond it. Every tail observation is <= the interpolated quantile,
// so the expected shortfall can never fall below the VaR.
func empiricalTail(returns []float64, alpha float64) (varEst, cvar float64) {
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	q := quantile(sorted, alpha)
	varEst = -q

	tailSum, tailN := 0.0, 0
	for _, r := range sorted {
		if r > q {
			break
		}
		tailSum += r
		tailN++
	}
	if tailN == 0 {
		return varEst, varEst
	}
	cvar = -(tailSum / float64(tailN))
	if cvar < varEst {
		cvar = varEst
	}
	return varEst, cvar
}

// BacktestVaR counts how often realized returns breached a loss-positive
// VaR estimate, against the expected breach rate 1-confidence.
// Diagnostic output only.
func (e *Engine) BacktestVaR(realizedReturns []float64, varEstimate, confidence float64) (*models.VaRBacktest, error) {
	if err := validateSeries(realizedReturns); err != nil {
		return nil, err
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, &models.InvalidInputError{Index: -1, Reason: "confidence must be in (0, 1)"}
	}

	exceptions := 0
	for _, r := range realizedReturns {
		if -r > varEstimate {
			exceptions++
		}
	}
	n := len(realizedReturns)
	return &models.VaRBacktest{
		Observations:  n,
		Exceptions:    exceptions,
		ExceptionRate: float64(exceptions) / float64(n),
		ExpectedRate:  1 - confidence,
	}, nil
}
