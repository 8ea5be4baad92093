// Package microstructure scores liquidity and flags single-period price
// dislocations from return and volume series.
package microstructure

import (
	"errors"
	"math"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/models"
)

// DefaultAnomalyZThreshold flags moves beyond four trailing standard
// deviations.
const DefaultAnomalyZThreshold = 4.0

// Engine implements the microstructure service
type Engine struct {
	logger *common.Logger
}

// NewEngine creates a new microstructure engine
func NewEngine(logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{logger: logger}
}

// AmihudIlliquidity computes |return| / dollar volume per period, averaged
// over a trailing window. Higher means less liquid. Zero or negative
// volume fails with InvalidInputError naming the offending index.
func (e *Engine) AmihudIlliquidity(returns, dollarVolume []float64, window int) ([]float64, error) {
	if len(returns) != len(dollarVolume) {
		return nil, &models.InvalidInputError{Index: -1, Reason: "return and volume series lengths differ"}
	}
	if window < 1 || window > len(returns) {
		return nil, &models.InvalidWindowError{Window: window, Length: len(returns)}
	}

	ratios := make([]float64, len(returns))
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &models.InvalidInputError{Index: i, Reason: "non-finite return"}
		}
		dv := dollarVolume[i]
		if math.IsNaN(dv) || math.IsInf(dv, 0) || dv <= 0 {
			return nil, &models.InvalidInputError{Index: i, Reason: "dollar volume must be finite and positive"}
		}
		ratios[i] = math.Abs(r) / dv
	}

	out := make([]float64, len(ratios)-window+1)
	sum := 0.0
	for i, v := range ratios {
		sum += v
		if i >= window {
			sum -= ratios[i-window]
		}
		if i >= window-1 {
			out[i-window+1] = sum / float64(window)
		}
	}
	return out, nil
}

// Liquidity runs the Amihud score for every asset in the series against
// its aligned dollar volumes.
func (e *Engine) Liquidity(rs *models.ReturnSeries, volumes map[string][]float64, window int) (*models.LiquidityReport, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	report := &models.LiquidityReport{
		Window: window,
		Scores: make(map[string][]float64, len(rs.Tickers)),
		Latest: make(map[string]float64, len(rs.Tickers)),
	}
	for _, ticker := range rs.Tickers {
		dv, ok := volumes[ticker]
		if !ok {
			return nil, &models.InvalidInputError{Ticker: ticker, Index: -1, Reason: "missing dollar volume series"}
		}
		scores, err := e.AmihudIlliquidity(rs.Returns[ticker], dv, window)
		if err != nil {
			var invalid *models.InvalidInputError
			if errors.As(err, &invalid) && invalid.Ticker == "" {
				invalid.Ticker = ticker
			}
			return nil, err
		}
		report.Scores[ticker] = scores
		report.Latest[ticker] = scores[len(scores)-1]
	}
	return report, nil
}

// DetectAnomalies flags observations deviating more than zThreshold
// trailing standard deviations from the trailing mean of the preceding
// window. Point events only; sustained shifts are regime classification's
// job. The returned index set is ascending.
func (e *Engine) DetectAnomalies(returns []float64, zThreshold float64, window int) ([]int, error) {
	if zThreshold == 0 {
		zThreshold = DefaultAnomalyZThreshold
	}
	if zThreshold < 0 || math.IsNaN(zThreshold) || math.IsInf(zThreshold, 0) {
		return nil, &models.InvalidInputError{Index: -1, Reason: "z threshold must be positive"}
	}
	if window < 2 || window >= len(returns) {
		return nil, &models.InvalidWindowError{Window: window, Length: len(returns)}
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &models.InvalidInputError{Index: i, Reason: "non-finite return"}
		}
	}

	var anomalies []int
	for i := window; i < len(returns); i++ {
		trailing := returns[i-window : i]
		mean := 0.0
		for _, r := range trailing {
			mean += r
		}
		mean /= float64(window)
		variance := 0.0
		for _, r := range trailing {
			d := r - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(window-1))

		diff := math.Abs(returns[i] - mean)
		if sd < 1e-12 {
			if diff > 1e-12 {
				anomalies = append(anomalies, i)
			}
			continue
		}
		if diff/sd > zThreshold {
			anomalies = append(anomalies, i)
		}
	}
	return anomalies, nil
}

// Anomalies runs detection for every asset in the series.
func (e *Engine) Anomalies(rs *models.ReturnSeries, zThreshold float64, window int) (*models.AnomalyReport, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if zThreshold == 0 {
		zThreshold = DefaultAnomalyZThreshold
	}

	report := &models.AnomalyReport{
		ZThreshold: zThreshold,
		Window:     window,
		Indices:    make(map[string][]int, len(rs.Tickers)),
	}
	for _, ticker := range rs.Tickers {
		idx, err := e.DetectAnomalies(rs.Returns[ticker], zThreshold, window)
		if err != nil {
			return nil, err
		}
		report.Indices[ticker] = idx
	}
	return report, nil
}
