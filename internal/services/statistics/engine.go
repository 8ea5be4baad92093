// Package statistics computes moments, covariance structure, rolling
// volatility, and volatility-regime labels over aligned return series.
package statistics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/models"
)

// Engine implements the statistics service. Calls are pure: no state is
// shared across invocations.
type Engine struct {
	logger *common.Logger
}

// NewEngine creates a new statistics engine
func NewEngine(logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{logger: logger}
}

// zeroVarianceTol treats variances below this as constant series.
const zeroVarianceTol = 1e-18

// ComputeCovariance computes the annualized sample covariance matrix of the
// aligned return series. A fresh immutable matrix is produced per call.
// Fails with DegenerateInputError when fewer than 2 observations exist or
// when any series has zero variance — never a silent zero.
func (e *Engine) ComputeCovariance(rs *models.ReturnSeries, annualizationFactor float64) (*models.CovarianceMatrix, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if annualizationFactor <= 0 {
		return nil, &models.InvalidInputError{Index: -1, Reason: "annualization factor must be positive"}
	}

	obs := rs.Length()
	if obs < 2 {
		return nil, &models.DegenerateInputError{Reason: "need at least 2 observations for covariance"}
	}

	n := len(rs.Tickers)
	data := mat.NewDense(obs, n, nil)
	for j, ticker := range rs.Tickers {
		series := rs.Returns[ticker]
		for i := 0; i < obs; i++ {
			data.Set(i, j, series[i])
		}
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, data, nil)

	for i, ticker := range rs.Tickers {
		if cov.At(i, i) < zeroVarianceTol {
			return nil, &models.DegenerateInputError{Ticker: ticker, Reason: "constant return series (zero variance)"}
		}
	}

	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, cov.At(i, j)*annualizationFactor)
		}
	}

	e.logger.Debug().
		Int("assets", n).
		Int("observations", obs).
		Float64("annualization_factor", annualizationFactor).
		Msg("Computed covariance matrix")

	tickers := make([]string, n)
	copy(tickers, rs.Tickers)

	return &models.CovarianceMatrix{
		Tickers:             tickers,
		Data:                scaled,
		AnnualizationFactor: annualizationFactor,
	}, nil
}

// SummaryStats computes headline performance figures for the portfolio
// return series.
func (e *Engine) SummaryStats(portfolioReturns []float64, annualizationFactor float64) (*models.SummaryStats, error) {
	if len(portfolioReturns) < 2 {
		return nil, &models.InsufficientDataError{Required: 2, Actual: len(portfolioReturns), What: "summary statistics"}
	}
	for i, r := range portfolioReturns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &models.InvalidInputError{Index: i, Reason: "non-finite return"}
		}
	}
	if annualizationFactor <= 0 {
		return nil, &models.InvalidInputError{Index: -1, Reason: "annualization factor must be positive"}
	}

	total := 1.0
	for _, r := range portfolioReturns {
		total *= 1 + r
	}

	mean := stat.Mean(portfolioReturns, nil)
	sd := stat.StdDev(portfolioReturns, nil)

	return &models.SummaryStats{
		TotalReturn:          total - 1,
		AnnualizedReturn:     mean * annualizationFactor,
		AnnualizedVolatility: sd * math.Sqrt(annualizationFactor),
		Mean:                 mean,
		Skewness:             stat.Skew(portfolioReturns, nil),
		Kurtosis:             stat.ExKurtosis(portfolioReturns, nil),
		Observations:         len(portfolioReturns),
	}, nil
}
