package models

import "time"

// RegimeLabel classifies realized volatility into a market state.
type RegimeLabel string

const (
	RegimeLow    RegimeLabel = "low"
	RegimeNormal RegimeLabel = "normal"
	RegimeHigh   RegimeLabel = "high"
)

// DrawdownReport describes the maximum peak-to-trough decline of the
// compounded wealth curve.
type DrawdownReport struct {
	MaxDrawdown float64   `json:"max_drawdown"` // positive loss fraction
	PeakDate    time.Time `json:"peak_date"`
	TroughDate  time.Time `json:"trough_date"`
	PeakIndex   int       `json:"peak_index"`
	TroughIndex int       `json:"trough_index"`
	Curve       []float64 `json:"curve,omitempty"` // compounded wealth per observation
}

// VaREstimate pairs a VaR figure with its expected shortfall.
// Both are positive loss fractions.
type VaREstimate struct {
	Method string  `json:"method"` // parametric, historical, monte_carlo
	VaR    float64 `json:"var"`
	CVaR   float64 `json:"cvar"`
}

// RiskReport is the immutable result bundle for one portfolio risk run,
// tagged with the confidence level and horizon that produced it.
type RiskReport struct {
	Confidence           float64            `json:"confidence"`
	HorizonDays          int                `json:"horizon_days"`
	Parametric           VaREstimate        `json:"parametric"`
	Historical           VaREstimate        `json:"historical"`
	MonteCarlo           VaREstimate        `json:"monte_carlo"`
	MonteCarloPaths      int                `json:"monte_carlo_paths"`
	MonteCarloSeed       int64              `json:"monte_carlo_seed"`
	Sharpe               float64            `json:"sharpe"`
	AnnualizedReturn     float64            `json:"annualized_return"`
	AnnualizedVolatility float64            `json:"annualized_volatility"`
	Drawdown             DrawdownReport     `json:"drawdown"`
	RiskContribution     map[string]float64 `json:"risk_contribution,omitempty"`
}

// VaRBacktest reports how often realized returns breached a VaR estimate.
// Illustrative diagnostics, not a correctness target.
type VaRBacktest struct {
	Observations  int     `json:"observations"`
	Exceptions    int     `json:"exceptions"`
	ExceptionRate float64 `json:"exception_rate"`
	ExpectedRate  float64 `json:"expected_rate"`
}

// FrontierPoint is one mean-variance efficient portfolio: expected return,
// volatility, and the weight vector that achieves them.
type FrontierPoint struct {
	ExpectedReturn float64            `json:"expected_return"`
	Volatility     float64            `json:"volatility"`
	Weights        map[string]float64 `json:"weights"`
}

// Frontier is the efficient frontier curve ordered by ascending
// volatility. Targets that no feasible portfolio can reach are listed in
// InfeasibleTargets instead of being silently clamped.
type Frontier struct {
	Points            []FrontierPoint `json:"points"`
	InfeasibleTargets []float64       `json:"infeasible_targets,omitempty"`
}

// AttributionReport decomposes portfolio risk and return per asset/factor.
type AttributionReport struct {
	RiskContribution map[string]float64 `json:"risk_contribution"`          // Euler variance decomposition, sums to 1
	VaRContribution  map[string]float64 `json:"var_contribution,omitempty"` // finite-difference approximation
	FactorReturns    map[string]float64 `json:"factor_returns,omitempty"`   // per-factor contribution to mean return
	FactorBetas      map[string]float64 `json:"factor_betas,omitempty"`
	Idiosyncratic    float64            `json:"idiosyncratic,omitempty"` // intercept + mean residual
	RSquared         float64            `json:"r_squared,omitempty"`
}

// LiquidityReport carries per-asset Amihud illiquidity scores.
// Higher means less liquid.
type LiquidityReport struct {
	Window int                  `json:"window"`
	Scores map[string][]float64 `json:"scores"`
	Latest map[string]float64   `json:"latest"`
}

// AnomalyReport lists single-period dislocations per asset.
type AnomalyReport struct {
	ZThreshold float64          `json:"z_threshold"`
	Window     int              `json:"window"`
	Indices    map[string][]int `json:"indices"`
}

// SummaryStats are the headline performance figures of the weighted
// portfolio return series.
type SummaryStats struct {
	TotalReturn          float64 `json:"total_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	Mean                 float64 `json:"mean"`
	Skewness             float64 `json:"skewness"`
	Kurtosis             float64 `json:"kurtosis"`
	Observations         int     `json:"observations"`
}

// RegimeReport pairs the rolling volatility series with its regime labels.
type RegimeReport struct {
	Window        int           `json:"window"`
	Volatility    []float64     `json:"volatility"`
	Labels        []RegimeLabel `json:"labels"`
	LowThreshold  float64       `json:"low_threshold"`
	HighThreshold float64       `json:"high_threshold"`
}

// SectionError records a failed sub-engine inside an otherwise successful
// analysis. Partial success is explicit and structural.
type SectionError struct {
	Section string `json:"section"`
	Error   string `json:"error"`
}

// AnalysisReport is the facade's aggregate result. Sections that failed are
// nil with a matching entry in Errors; one failing metric never blocks the
// others.
type AnalysisReport struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	DurationMS  int64              `json:"duration_ms"`
	Tickers     []string           `json:"tickers"`
	Dates       []time.Time        `json:"dates,omitempty"` // aligned observation axis
	Summary     *SummaryStats      `json:"summary,omitempty"`
	Risk        *RiskReport        `json:"risk,omitempty"`
	Regimes     *RegimeReport      `json:"regimes,omitempty"`
	Correlation [][]float64        `json:"correlation,omitempty"`
	Attribution *AttributionReport `json:"attribution,omitempty"`
	Frontier    *Frontier          `json:"frontier,omitempty"`
	Tangency    *Portfolio         `json:"tangency,omitempty"`
	Liquidity   *LiquidityReport   `json:"liquidity,omitempty"`
	Anomalies   *AnomalyReport     `json:"anomalies,omitempty"`
	Errors      []SectionError     `json:"errors,omitempty"`
}
