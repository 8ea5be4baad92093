package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/riskcore/internal/models"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func TestRenderFrontierChart(t *testing.T) {
	t.Run("renders png", func(t *testing.T) {
		frontier := &models.Frontier{Points: []models.FrontierPoint{
			{ExpectedReturn: 0.05, Volatility: 0.12, Weights: map[string]float64{"AAA": 1}},
			{ExpectedReturn: 0.07, Volatility: 0.15, Weights: map[string]float64{"AAA": 0.5, "BBB": 0.5}},
			{ExpectedReturn: 0.10, Volatility: 0.22, Weights: map[string]float64{"BBB": 1}},
		}}

		png, err := RenderFrontierChart(frontier)
		require.NoError(t, err)
		require.Greater(t, len(png), 4)
		assert.Equal(t, pngMagic, png[:4])
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := RenderFrontierChart(&models.Frontier{})
		assert.Error(t, err)
	})
}

func TestRenderDrawdownChart(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("renders png with drawdown span", func(t *testing.T) {
		curve := []float64{1.05, 1.10, 0.95, 0.90, 1.02}
		dates := make([]time.Time, len(curve))
		for i := range dates {
			dates[i] = base.AddDate(0, 0, i)
		}
		dd := &models.DrawdownReport{
			MaxDrawdown: (1.10 - 0.90) / 1.10,
			PeakIndex:   1,
			TroughIndex: 3,
			Curve:       curve,
		}

		png, err := RenderDrawdownChart(dd, dates)
		require.NoError(t, err)
		require.Greater(t, len(png), 4)
		assert.Equal(t, pngMagic, png[:4])
	})

	t.Run("date axis mismatch", func(t *testing.T) {
		dd := &models.DrawdownReport{Curve: []float64{1.0, 1.1}}
		_, err := RenderDrawdownChart(dd, []time.Time{base})
		assert.Error(t, err)
	})
}
