package attribution

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/riskcore/internal/models"
)

func TestFactorAttribution(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("recovers exact linear model", func(t *testing.T) {
		market := make([]float64, 30)
		value := make([]float64, 30)
		portfolio := make([]float64, 30)
		for i := range market {
			market[i] = 0.01 * math.Sin(float64(i))
			value[i] = 0.008 * math.Cos(float64(i)*1.3)
			portfolio[i] = 0.0005 + 1.2*market[i] - 0.4*value[i]
		}

		report, err := engine.FactorAttribution(portfolio, map[string][]float64{
			"market": market,
			"value":  value,
		})
		require.NoError(t, err)

		assert.InDelta(t, 1.2, report.FactorBetas["market"], 1e-9)
		assert.InDelta(t, -0.4, report.FactorBetas["value"], 1e-9)
		assert.InDelta(t, 1.0, report.RSquared, 1e-9)

		// Factor contributions plus the idiosyncratic remainder recover
		// the portfolio mean.
		mean := 0.0
		for _, r := range portfolio {
			mean += r
		}
		mean /= float64(len(portfolio))
		total := report.Idiosyncratic
		for _, c := range report.FactorReturns {
			total += c
		}
		assert.InDelta(t, mean, total, 1e-12)
	})

	t.Run("duplicate factor is rank deficient", func(t *testing.T) {
		market := make([]float64, 30)
		portfolio := make([]float64, 30)
		for i := range market {
			market[i] = 0.01 * math.Sin(float64(i))
			portfolio[i] = 1.1 * market[i]
		}

		_, err := engine.FactorAttribution(portfolio, map[string][]float64{
			"market": market,
			"clone":  market,
		})
		var rd *models.RankDeficientError
		require.True(t, errors.As(err, &rd))
		assert.Equal(t, 3, rd.Columns)
	})

	t.Run("length mismatch rejected", func(t *testing.T) {
		_, err := engine.FactorAttribution(
			[]float64{0.01, 0.02, -0.01, 0.005, 0.0, 0.01, -0.02, 0.015},
			map[string][]float64{"market": {0.01, 0.02}},
		)
		var invalid *models.InvalidInputError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("no factors", func(t *testing.T) {
		_, err := engine.FactorAttribution([]float64{0.01, 0.02}, nil)
		var insufficient *models.InsufficientDataError
		assert.True(t, errors.As(err, &insufficient))
	})
}
