package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
	"github.com/bobmcallan/riskcore/internal/services/report"
)

// --- Request payloads ---

type barPayload struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

type assetPayload struct {
	Ticker string       `json:"ticker"`
	Bars   []barPayload `json:"bars"`
}

type constraintsPayload struct {
	AllowShort   bool               `json:"allow_short,omitempty"`
	MaxWeight    float64            `json:"max_weight,omitempty"`
	SectorOf     map[string]string  `json:"sector_of,omitempty"`
	SectorLimits map[string]float64 `json:"sector_limits,omitempty"`
}

type analyzeRequest struct {
	Assets            []assetPayload       `json:"assets"`
	Weights           map[string]float64   `json:"weights,omitempty"` // equal weights when omitted
	AllowShort        bool                 `json:"allow_short,omitempty"`
	ReturnMethod      string               `json:"return_method,omitempty"`
	Confidence        float64              `json:"confidence,omitempty"`
	HorizonDays       int                  `json:"horizon_days,omitempty"`
	MonteCarloPaths   int                  `json:"monte_carlo_paths,omitempty"`
	MonteCarloSeed    *int64               `json:"monte_carlo_seed,omitempty"`
	RiskFreeRate      *float64             `json:"risk_free_rate,omitempty"`
	FrontierPoints    int                  `json:"frontier_points,omitempty"`
	MaxIterations     int                  `json:"max_iterations,omitempty"`
	VolatilityWindow  int                  `json:"volatility_window,omitempty"`
	LiquidityWindow   int                  `json:"liquidity_window,omitempty"`
	AnomalyWindow     int                  `json:"anomaly_window,omitempty"`
	AnomalyZThreshold float64              `json:"anomaly_z_threshold,omitempty"`
	Constraints       constraintsPayload   `json:"constraints,omitempty"`
	FactorReturns     map[string][]float64 `json:"factor_returns,omitempty"`
}

// toAnalysisRequest converts the wire payload into the engine request,
// filling unset knobs from the configured engine defaults.
func (s *Server) toAnalysisRequest(req analyzeRequest) (interfaces.AnalysisRequest, error) {
	assets := make([]*models.Asset, 0, len(req.Assets))
	for _, ap := range req.Assets {
		a := &models.Asset{Ticker: ap.Ticker}
		for i, bp := range ap.Bars {
			date, err := time.Parse("2006-01-02", bp.Date)
			if err != nil {
				return interfaces.AnalysisRequest{}, &models.InvalidInputError{
					Ticker: ap.Ticker, Index: i, Reason: "bad date " + bp.Date + ", want YYYY-MM-DD",
				}
			}
			a.Bars = append(a.Bars, models.PriceBar{Date: date.UTC(), Close: bp.Close, Volume: bp.Volume})
		}
		assets = append(assets, a)
	}

	var portfolio *models.Portfolio
	if len(req.Weights) > 0 {
		portfolio = &models.Portfolio{AllowShort: req.AllowShort}
		for _, a := range assets {
			if w, ok := req.Weights[a.Ticker]; ok {
				portfolio.Holdings = append(portfolio.Holdings, models.Holding{Ticker: a.Ticker, Weight: w})
			}
		}
	}

	engine := s.config.Engine
	params := interfaces.RiskParams{
		Confidence:          orDefaultFloat(req.Confidence, engine.Confidence),
		HorizonDays:         orDefaultInt(req.HorizonDays, engine.HorizonDays),
		AnnualizationFactor: engine.AnnualizationFactor,
		MonteCarloPaths:     orDefaultInt(req.MonteCarloPaths, engine.MonteCarloPaths),
		MonteCarloSeed:      engine.MonteCarloSeed,
		RiskFreeRate:        engine.RiskFreeRate,
	}
	if req.MonteCarloSeed != nil {
		params.MonteCarloSeed = *req.MonteCarloSeed
	}
	if req.RiskFreeRate != nil {
		params.RiskFreeRate = *req.RiskFreeRate
	}

	method := req.ReturnMethod
	if method == "" {
		method = engine.ReturnMethod
	}

	return interfaces.AnalysisRequest{
		Assets:       assets,
		Portfolio:    portfolio,
		Risk:         params,
		ReturnMethod: models.ReturnMethod(method),
		Constraints: interfaces.Constraints{
			AllowShort:   req.AllowShort || req.Constraints.AllowShort,
			MaxWeight:    req.Constraints.MaxWeight,
			SectorOf:     req.Constraints.SectorOf,
			SectorLimits: req.Constraints.SectorLimits,
		},
		FrontierPoints:    orDefaultInt(req.FrontierPoints, engine.FrontierPoints),
		MaxIterations:     orDefaultInt(req.MaxIterations, engine.MaxIterations),
		VolatilityWindow:  orDefaultInt(req.VolatilityWindow, engine.VolatilityWindow),
		LiquidityWindow:   orDefaultInt(req.LiquidityWindow, engine.LiquidityWindow),
		AnomalyWindow:     orDefaultInt(req.AnomalyWindow, engine.AnomalyWindow),
		AnomalyZThreshold: orDefaultFloat(req.AnomalyZThreshold, engine.AnomalyZThreshold),
		FactorReturns:     req.FactorReturns,
	}, nil
}

func orDefaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"full":    common.GetFullVersion(),
	})
}

// --- Analysis handlers ---

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyzeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	areq, err := s.toAnalysisRequest(req)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	result, err := s.analytics.Analyze(r.Context(), areq)
	if err != nil {
		WriteError(w, statusForError(err), fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// runAnalysis is the shared front half of the frontier and chart handlers.
func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request) (*models.AnalysisReport, bool) {
	var req analyzeRequest
	if !DecodeJSON(w, r, &req) {
		return nil, false
	}

	areq, err := s.toAnalysisRequest(req)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return nil, false
	}

	result, err := s.analytics.Analyze(r.Context(), areq)
	if err != nil {
		WriteError(w, statusForError(err), fmt.Sprintf("Analysis failed: %v", err))
		return nil, false
	}
	return result, true
}

func (s *Server) handleFrontier(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	result, ok := s.runAnalysis(w, r)
	if !ok {
		return
	}
	if result.Frontier == nil {
		WriteError(w, http.StatusUnprocessableEntity, sectionFailure(result, "frontier"))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"frontier": result.Frontier,
		"tangency": result.Tangency,
	})
}

func (s *Server) handleFrontierChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	result, ok := s.runAnalysis(w, r)
	if !ok {
		return
	}
	if result.Frontier == nil {
		WriteError(w, http.StatusUnprocessableEntity, sectionFailure(result, "frontier"))
		return
	}

	png, err := report.RenderFrontierChart(result.Frontier)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Chart render failed: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleDrawdownChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	result, ok := s.runAnalysis(w, r)
	if !ok {
		return
	}
	if result.Risk == nil || len(result.Risk.Drawdown.Curve) == 0 {
		WriteError(w, http.StatusUnprocessableEntity, sectionFailure(result, "risk.drawdown"))
		return
	}

	png, err := report.RenderDrawdownChart(&result.Risk.Drawdown, result.Dates)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Chart render failed: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// sectionFailure extracts the recorded error for a section, if any.
func sectionFailure(result *models.AnalysisReport, section string) string {
	for _, se := range result.Errors {
		if se.Section == section {
			return section + " failed: " + se.Error
		}
	}
	return section + " unavailable"
}
