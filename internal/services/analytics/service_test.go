package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// syntheticAsset builds a price walk whose simple returns follow the given
// generator.
func syntheticAsset(ticker string, bars int, ret func(i int) float64) *models.Asset {
	a := &models.Asset{Ticker: ticker}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < bars; i++ {
		if i > 0 {
			price *= 1 + ret(i)
		}
		a.Bars = append(a.Bars, models.PriceBar{
			Date:   base.AddDate(0, 0, i),
			Close:  price,
			Volume: 1e6 + float64(i)*1000,
		})
	}
	return a
}

func testAssets(bars int) []*models.Asset {
	return []*models.Asset{
		syntheticAsset("AAA", bars, func(i int) float64 {
			return 0.0004 + 0.01*math.Sin(float64(i))
		}),
		syntheticAsset("BBB", bars, func(i int) float64 {
			return 0.0006 + 0.012*math.Cos(float64(i)*0.7)
		}),
	}
}

func TestAnalyze(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	t.Run("full report", func(t *testing.T) {
		report, err := svc.Analyze(ctx, interfaces.AnalysisRequest{
			Assets: testAssets(150),
			Risk:   interfaces.RiskParams{MonteCarloPaths: 2000, MonteCarloSeed: 42},
		})
		require.NoError(t, err)

		assert.NotEmpty(t, report.RunID)
		assert.Empty(t, report.Errors)
		assert.Equal(t, []string{"AAA", "BBB"}, report.Tickers)

		require.NotNil(t, report.Summary)
		require.NotNil(t, report.Risk)
		require.NotNil(t, report.Regimes)
		require.NotNil(t, report.Attribution)
		require.NotNil(t, report.Frontier)
		require.NotNil(t, report.Tangency)
		require.NotNil(t, report.Liquidity)
		require.NotNil(t, report.Anomalies)
		require.Len(t, report.Correlation, 2)

		assert.GreaterOrEqual(t, report.Risk.Parametric.CVaR, report.Risk.Parametric.VaR)
		assert.GreaterOrEqual(t, report.Risk.Historical.CVaR, report.Risk.Historical.VaR)
		assert.GreaterOrEqual(t, report.Risk.MonteCarlo.CVaR, report.Risk.MonteCarlo.VaR)

		sum := 0.0
		for _, c := range report.Risk.RiskContribution {
			sum += c
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	})

	t.Run("equal weights by default", func(t *testing.T) {
		report, err := svc.Analyze(ctx, interfaces.AnalysisRequest{
			Assets: testAssets(60),
			Risk:   interfaces.RiskParams{MonteCarloPaths: 500},
		})
		require.NoError(t, err)
		require.NotNil(t, report.Attribution)
	})

	t.Run("degenerate series degrades gracefully", func(t *testing.T) {
		assets := []*models.Asset{
			testAssets(80)[0],
			syntheticAsset("FLAT", 80, func(int) float64 { return 0 }),
		}
		report, err := svc.Analyze(ctx, interfaces.AnalysisRequest{
			Assets: assets,
			Risk:   interfaces.RiskParams{MonteCarloPaths: 500},
		})
		require.NoError(t, err)

		// Covariance-dependent sections fail; the rest still compute.
		assert.Nil(t, report.Frontier)
		assert.NotNil(t, report.Risk)
		assert.NotNil(t, report.Summary)

		sections := make(map[string]bool)
		for _, se := range report.Errors {
			sections[se.Section] = true
		}
		assert.True(t, sections["covariance"])
		assert.True(t, sections["frontier"])
	})

	t.Run("missing volume skips liquidity", func(t *testing.T) {
		assets := testAssets(80)
		for _, a := range assets {
			for i := range a.Bars {
				a.Bars[i].Volume = 0
			}
		}
		report, err := svc.Analyze(ctx, interfaces.AnalysisRequest{
			Assets: assets,
			Risk:   interfaces.RiskParams{MonteCarloPaths: 500},
		})
		require.NoError(t, err)

		assert.Nil(t, report.Liquidity)
		for _, se := range report.Errors {
			assert.NotEqual(t, "liquidity", se.Section)
		}
		assert.NotNil(t, report.Anomalies)
	})

	t.Run("too little shared history is fatal", func(t *testing.T) {
		_, err := svc.Analyze(ctx, interfaces.AnalysisRequest{Assets: testAssets(2)})
		assert.Error(t, err)
	})

	t.Run("factor attribution when factors given", func(t *testing.T) {
		assets := testAssets(100)
		market := make([]float64, 99)
		for i := range market {
			market[i] = assets[0].Bars[i+1].Close/assets[0].Bars[i].Close - 1
		}

		report, err := svc.Analyze(ctx, interfaces.AnalysisRequest{
			Assets:        assets,
			Risk:          interfaces.RiskParams{MonteCarloPaths: 500},
			FactorReturns: map[string][]float64{"market": market},
		})
		require.NoError(t, err)
		require.NotNil(t, report.Attribution)
		assert.Contains(t, report.Attribution.FactorBetas, "market")
	})
}
