// Package attribution decomposes portfolio risk and return into per-asset
// and per-factor contributions.
package attribution

import (
	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
	"github.com/bobmcallan/riskcore/internal/services/risk"
)

// Engine implements the attribution service
type Engine struct {
	logger     *common.Logger
	riskEngine *risk.Engine
}

// NewEngine creates a new attribution engine
func NewEngine(logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{logger: logger, riskEngine: risk.NewEngine(logger)}
}

// RiskContribution computes the Euler decomposition of portfolio variance:
// contribution_i = w_i * (Sigma w)_i / (w' Sigma w). The fractions sum to
// one by construction. Fails with DegenerateInputError when the portfolio
// variance is zero, as for a perfectly hedged book.
func (e *Engine) RiskContribution(cov *models.CovarianceMatrix, p *models.Portfolio) (map[string]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := p.WeightVector(cov.Tickers)

	n := cov.Dim()
	sigmaW := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigmaW[i] += cov.At(i, j) * w[j]
		}
		total += w[i] * sigmaW[i]
	}
	if total <= 0 {
		return nil, &models.DegenerateInputError{Reason: "portfolio variance is zero, risk contributions undefined"}
	}

	out := make(map[string]float64, n)
	for i, ticker := range cov.Tickers {
		out[ticker] = w[i] * sigmaW[i] / total
	}
	return out, nil
}

// varBumpSize is the relative weight perturbation for the finite-difference
// VaR gradient.
const varBumpSize = 1e-5

// VaRContribution approximates each asset's share of parametric VaR by a
// forward finite difference on its weight. VaR is homogeneous of degree one
// in the weights, so the shares sum to approximately one.
func (e *Engine) VaRContribution(rs *models.ReturnSeries, p *models.Portfolio, params interfaces.RiskParams) (map[string]float64, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	base, err := rs.WeightedReturns(p)
	if err != nil {
		return nil, err
	}
	baseVaR, err := e.riskEngine.ParametricVaR(base, params)
	if err != nil {
		return nil, err
	}
	if baseVaR.VaR == 0 {
		return nil, &models.DegenerateInputError{Reason: "zero portfolio VaR, contributions undefined"}
	}

	w := p.WeightVector(rs.Tickers)
	bumped := make([]float64, len(base))

	out := make(map[string]float64, len(rs.Tickers))
	for i, ticker := range rs.Tickers {
		series := rs.Returns[ticker]
		for k := range base {
			bumped[k] = base[k] + varBumpSize*series[k]
		}
		bumpedVaR, err := e.riskEngine.ParametricVaR(bumped, params)
		if err != nil {
			return nil, err
		}
		grad := (bumpedVaR.VaR - baseVaR.VaR) / varBumpSize
		out[ticker] = w[i] * grad / baseVaR.VaR
	}
	return out, nil
}
