// Package interfaces defines service contracts for Riskcore
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/riskcore/internal/models"
)

// MarketDataProvider supplies aligned price/return series. Retrieval and
// caching live behind this boundary so the numerical core stays
// deterministic and independently testable.
type MarketDataProvider interface {
	// GetReturns fetches price history for the identifiers and derives an
	// aligned return series over [start, end).
	GetReturns(ctx context.Context, identifiers []string, start, end time.Time, method models.ReturnMethod) (*models.ReturnSeries, error)

	// GetDollarVolumes fetches traded dollar volume aligned to the return
	// series dates, for liquidity and anomaly analysis.
	GetDollarVolumes(ctx context.Context, identifiers []string, start, end time.Time) (map[string][]float64, error)
}

// AnalyticsService is the public contract consumed by the dashboard and
// report layers.
type AnalyticsService interface {
	// Analyze runs all sub-engines against one set of holdings. A failing
	// sub-engine is reported inside the result, never as a call failure.
	Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error)
}

// RiskParams carries the explicit configuration surface of a risk run.
// Zero values are replaced with the documented defaults.
type RiskParams struct {
	Confidence          float64 // default 0.95
	HorizonDays         int     // default 1
	AnnualizationFactor float64 // default 252
	MonteCarloPaths     int     // default 10000
	MonteCarloSeed      int64
	RiskFreeRate        float64 // annualized
}

// Constraints bounds the optimizer's weight vectors.
type Constraints struct {
	AllowShort   bool               // permit negative weights down to -cap; long-only when unset
	MaxWeight    float64            // per-asset cap, 0 means uncapped
	SectorOf     map[string]string  // ticker -> sector
	SectorLimits map[string]float64 // sector -> weight cap
}

// AnalysisRequest is the full input of one facade run.
type AnalysisRequest struct {
	Assets            []*models.Asset
	Portfolio         *models.Portfolio
	Risk              RiskParams
	ReturnMethod      models.ReturnMethod
	Constraints       Constraints
	FrontierPoints    int
	MaxIterations     int
	VolatilityWindow  int
	LiquidityWindow   int
	AnomalyWindow     int
	AnomalyZThreshold float64
	FactorReturns     map[string][]float64 // optional, enables factor attribution
}
