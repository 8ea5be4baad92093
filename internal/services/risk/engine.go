// Package risk computes VaR, expected shortfall, drawdown, and Sharpe
// metrics over weighted portfolio return series. All functions are pure:
// explicit inputs, immutable results, no shared state between calls.
package risk

import (
	"math"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// Engine implements the risk service
type Engine struct {
	logger *common.Logger
}

// NewEngine creates a new risk engine
func NewEngine(logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{logger: logger}
}

// NormalizeParams fills zero-valued risk parameters with the documented
// defaults and validates the result.
func NormalizeParams(p interfaces.RiskParams) (interfaces.RiskParams, error) {
	if p.Confidence == 0 {
		p.Confidence = 0.95
	}
	if p.HorizonDays == 0 {
		p.HorizonDays = 1
	}
	if p.AnnualizationFactor == 0 {
		p.AnnualizationFactor = 252
	}
	if p.MonteCarloPaths == 0 {
		p.MonteCarloPaths = 10000
	}
	if p.Confidence <= 0 || p.Confidence >= 1 {
		return p, &models.InvalidInputError{Index: -1, Reason: "confidence must be in (0, 1)"}
	}
	if p.HorizonDays < 1 {
		return p, &models.InvalidInputError{Index: -1, Reason: "horizon must be at least 1 day"}
	}
	if p.MonteCarloPaths < 1 {
		return p, &models.InvalidInputError{Index: -1, Reason: "monte carlo path count must be positive"}
	}
	if math.IsNaN(p.RiskFreeRate) || math.IsInf(p.RiskFreeRate, 0) {
		return p, &models.InvalidInputError{Index: -1, Reason: "non-finite risk-free rate"}
	}
	return p, nil
}

// validateSeries rejects empty or non-finite return series, naming the
// offending index. No engine function silently coerces NaN/Inf.
func validateSeries(returns []float64) error {
	if len(returns) == 0 {
		return &models.InsufficientDataError{Required: 1, Actual: 0, What: "return series"}
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return &models.InvalidInputError{Index: i, Reason: "non-finite return"}
		}
	}
	return nil
}
