// Package analytics orchestrates the statistics, risk, attribution,
// optimization, and microstructure engines against one set of holdings.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
	"github.com/bobmcallan/riskcore/internal/services/attribution"
	"github.com/bobmcallan/riskcore/internal/services/microstructure"
	"github.com/bobmcallan/riskcore/internal/services/optimization"
	"github.com/bobmcallan/riskcore/internal/services/risk"
	"github.com/bobmcallan/riskcore/internal/services/statistics"
)

const (
	defaultVolatilityWindow = 21
	defaultLiquidityWindow  = 21
	defaultAnomalyWindow    = 20
)

// Service implements interfaces.AnalyticsService by fanning the request
// out across the sub-engines. One failing metric never blocks the others;
// failures land in the report's Errors list keyed by section.
type Service struct {
	logger       *common.Logger
	statistics   *statistics.Engine
	risk         *risk.Engine
	attribution  *attribution.Engine
	optimization *optimization.Engine
	micro        *microstructure.Engine
}

// NewService creates a new analytics service
func NewService(logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		logger:       logger,
		statistics:   statistics.NewEngine(logger),
		risk:         risk.NewEngine(logger),
		attribution:  attribution.NewEngine(logger),
		optimization: optimization.NewEngine(logger),
		micro:        microstructure.NewEngine(logger),
	}
}

// Analyze runs all sub-engines against the request. The returned error is
// reserved for inputs so malformed that nothing can run; anything less
// lands in the report as a section error.
func (s *Service) Analyze(ctx context.Context, req interfaces.AnalysisRequest) (*models.AnalysisReport, error) {
	start := time.Now()

	method := req.ReturnMethod
	if method == "" {
		method = models.ReturnSimple
	}
	rs, err := models.NewReturnSeries(req.Assets, method)
	if err != nil {
		return nil, err
	}

	portfolio := req.Portfolio
	if portfolio == nil {
		portfolio = models.NewEqualWeightPortfolio(rs.Tickers)
	}
	if err := portfolio.Validate(); err != nil {
		return nil, err
	}

	params, err := risk.NormalizeParams(req.Risk)
	if err != nil {
		return nil, err
	}

	portReturns, err := rs.WeightedReturns(portfolio)
	if err != nil {
		return nil, err
	}

	report := &models.AnalysisReport{
		RunID:       uuid.NewString(),
		GeneratedAt: start.UTC(),
		Tickers:     rs.Tickers,
		Dates:       rs.Dates,
	}

	var mu sync.Mutex
	fail := func(section string, err error) {
		mu.Lock()
		report.Errors = append(report.Errors, models.SectionError{Section: section, Error: err.Error()})
		mu.Unlock()
		s.logger.Warn().Str("section", section).Err(err).Msg("Analysis section failed")
	}

	// The covariance feeds several sections; computed once up front.
	cov, covErr := s.statistics.ComputeCovariance(rs, params.AnnualizationFactor)
	if covErr != nil {
		fail("covariance", covErr)
	}

	volWindow := req.VolatilityWindow
	if volWindow <= 0 {
		volWindow = defaultVolatilityWindow
	}
	liqWindow := req.LiquidityWindow
	if liqWindow <= 0 {
		liqWindow = defaultLiquidityWindow
	}
	anomWindow := req.AnomalyWindow
	if anomWindow <= 0 {
		anomWindow = defaultAnomalyWindow
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.statistics.SummaryStats(portReturns, params.AnnualizationFactor)
		if err != nil {
			fail("summary", err)
			return nil
		}
		report.Summary = summary
		return nil
	})

	g.Go(func() error {
		report.Risk = s.buildRiskReport(rs, portfolio, portReturns, params, fail)
		return nil
	})

	g.Go(func() error {
		regimes, err := s.statistics.RegimeReport(portReturns, volWindow, nil)
		if err != nil {
			fail("regimes", err)
			return nil
		}
		report.Regimes = regimes
		return nil
	})

	if covErr == nil {
		g.Go(func() error {
			report.Correlation = cov.CorrelationRows()
			return nil
		})

		g.Go(func() error {
			report.Attribution = s.buildAttribution(rs, portfolio, cov, params, req.FactorReturns, fail)
			return nil
		})

		expected := make([]float64, len(cov.Tickers))
		for i, ticker := range cov.Tickers {
			expected[i] = stat.Mean(rs.Returns[ticker], nil) * params.AnnualizationFactor
		}

		g.Go(func() error {
			frontier, err := s.optimization.EfficientFrontier(gctx, cov, expected, req.Constraints, req.FrontierPoints, req.MaxIterations)
			if err != nil {
				fail("frontier", err)
				return nil
			}
			report.Frontier = frontier
			return nil
		})

		g.Go(func() error {
			tangency, err := s.optimization.TangencyPortfolio(gctx, cov, expected, params.RiskFreeRate, req.Constraints, req.MaxIterations)
			if err != nil {
				fail("tangency", err)
				return nil
			}
			report.Tangency = tangency
			return nil
		})
	} else {
		for _, section := range []string{"correlation", "attribution", "frontier", "tangency"} {
			fail(section, covErr)
		}
	}

	// Volume is optional in the input; without any the liquidity section
	// is skipped rather than reported as a failure.
	if volumes := alignedVolumes(req.Assets, rs); hasVolumeData(volumes) {
		g.Go(func() error {
			liquidity, err := s.micro.Liquidity(rs, volumes, liqWindow)
			if err != nil {
				fail("liquidity", err)
				return nil
			}
			report.Liquidity = liquidity
			return nil
		})
	} else {
		s.logger.Debug().Msg("No volume data, skipping liquidity")
	}

	g.Go(func() error {
		anomalies, err := s.micro.Anomalies(rs, req.AnomalyZThreshold, anomWindow)
		if err != nil {
			fail("anomalies", err)
			return nil
		}
		report.Anomalies = anomalies
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if report.Risk != nil && report.Attribution != nil {
		report.Risk.RiskContribution = report.Attribution.RiskContribution
	}

	report.DurationMS = time.Since(start).Milliseconds()
	s.logger.Info().
		Str("run_id", report.RunID).
		Int("assets", len(rs.Tickers)).
		Int("section_errors", len(report.Errors)).
		Int64("duration_ms", report.DurationMS).
		Msg("Analysis complete")

	return report, nil
}

// buildRiskReport runs every risk metric independently so one failing
// method does not blank the rest.
func (s *Service) buildRiskReport(rs *models.ReturnSeries, portfolio *models.Portfolio, portReturns []float64, params interfaces.RiskParams, fail func(string, error)) *models.RiskReport {
	rr := &models.RiskReport{
		Confidence:      params.Confidence,
		HorizonDays:     params.HorizonDays,
		MonteCarloPaths: params.MonteCarloPaths,
		MonteCarloSeed:  params.MonteCarloSeed,
	}

	if est, err := s.risk.ParametricVaR(portReturns, params); err != nil {
		fail("risk.parametric", err)
	} else {
		rr.Parametric = est
	}
	if est, err := s.risk.HistoricalVaR(portReturns, params); err != nil {
		fail("risk.historical", err)
	} else {
		rr.Historical = est
	}
	if est, err := s.risk.MonteCarloVaR(rs, portfolio, params); err != nil {
		fail("risk.monte_carlo", err)
	} else {
		rr.MonteCarlo = est
	}
	if dd, err := s.risk.Drawdown(portReturns, rs.Dates); err != nil {
		fail("risk.drawdown", err)
	} else {
		rr.Drawdown = *dd
	}
	if sharpe, err := s.risk.Sharpe(portReturns, params); err != nil {
		fail("risk.sharpe", err)
	} else {
		rr.Sharpe = sharpe
	}
	if summary, err := s.statistics.SummaryStats(portReturns, params.AnnualizationFactor); err == nil {
		rr.AnnualizedReturn = summary.AnnualizedReturn
		rr.AnnualizedVolatility = summary.AnnualizedVolatility
	}
	return rr
}

// buildAttribution assembles risk, VaR, and factor attribution into one
// report, recording partial failures per concern.
func (s *Service) buildAttribution(rs *models.ReturnSeries, portfolio *models.Portfolio, cov *models.CovarianceMatrix, params interfaces.RiskParams, factors map[string][]float64, fail func(string, error)) *models.AttributionReport {
	report := &models.AttributionReport{}

	if contrib, err := s.attribution.RiskContribution(cov, portfolio); err != nil {
		fail("attribution.risk", err)
	} else {
		report.RiskContribution = contrib
	}
	if contrib, err := s.attribution.VaRContribution(rs, portfolio, params); err != nil {
		fail("attribution.var", err)
	} else {
		report.VaRContribution = contrib
	}
	if len(factors) > 0 {
		portReturns, err := rs.WeightedReturns(portfolio)
		if err == nil {
			factorReport, ferr := s.attribution.FactorAttribution(portReturns, factors)
			if ferr != nil {
				fail("attribution.factors", ferr)
			} else {
				report.FactorBetas = factorReport.FactorBetas
				report.FactorReturns = factorReport.FactorReturns
				report.Idiosyncratic = factorReport.Idiosyncratic
				report.RSquared = factorReport.RSquared
			}
		}
	}
	return report
}

// alignedVolumes extracts per-ticker dollar volumes matching the return
// series dates. Return i covers the bar at date i, the period end.
func alignedVolumes(assets []*models.Asset, rs *models.ReturnSeries) map[string][]float64 {
	out := make(map[string][]float64, len(assets))
	for _, a := range assets {
		byDate := make(map[int64]float64, len(a.Bars))
		for _, bar := range a.Bars {
			byDate[bar.Date.UnixNano()] = bar.Volume
		}
		series := make([]float64, len(rs.Dates))
		for i, d := range rs.Dates {
			series[i] = byDate[d.UnixNano()]
		}
		out[a.Ticker] = series
	}
	return out
}

func hasVolumeData(volumes map[string][]float64) bool {
	for _, series := range volumes {
		for _, v := range series {
			if v > 0 {
				return true
			}
		}
	}
	return false
}
