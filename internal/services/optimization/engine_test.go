package optimization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

func testCovariance(tickers []string, data []float64) *models.CovarianceMatrix {
	n := len(tickers)
	return &models.CovarianceMatrix{
		Tickers:             tickers,
		Data:                mat.NewSymDense(n, data),
		AnnualizationFactor: 252,
	}
}

func threeAssetUniverse() (*models.CovarianceMatrix, []float64) {
	cov := testCovariance([]string{"AAA", "BBB", "CCC"}, []float64{
		0.0400, 0.0060, 0.0050,
		0.0060, 0.0900, 0.0090,
		0.0050, 0.0090, 0.0625,
	})
	return cov, []float64{0.05, 0.10, 0.08}
}

func TestEfficientFrontier(t *testing.T) {
	engine := NewEngine(nil)
	ctx := context.Background()

	t.Run("ordered and monotone", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		frontier, err := engine.EfficientFrontier(ctx, cov, expected, interfaces.Constraints{}, 9, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(frontier.Points), 2)

		for i := 1; i < len(frontier.Points); i++ {
			assert.GreaterOrEqual(t, frontier.Points[i].Volatility, frontier.Points[i-1].Volatility)
			assert.Greater(t, frontier.Points[i].ExpectedReturn, frontier.Points[i-1].ExpectedReturn)
		}
		for _, pt := range frontier.Points {
			sum := 0.0
			for _, w := range pt.Weights {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		}
	})

	t.Run("reaches the max return corner", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		frontier, err := engine.EfficientFrontier(ctx, cov, expected, interfaces.Constraints{}, 5, 0)
		require.NoError(t, err)
		require.NotEmpty(t, frontier.Points)

		last := frontier.Points[len(frontier.Points)-1]
		assert.InDelta(t, 0.10, last.ExpectedReturn, 1e-3)
		assert.InDelta(t, 1.0, last.Weights["BBB"], 1e-2)
	})

	t.Run("per asset cap shrinks the range", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		frontier, err := engine.EfficientFrontier(ctx, cov, expected, interfaces.Constraints{MaxWeight: 0.5}, 5, 0)
		require.NoError(t, err)
		require.NotEmpty(t, frontier.Points)

		// Best cap-feasible mix is half BBB, half CCC.
		last := frontier.Points[len(frontier.Points)-1]
		assert.InDelta(t, 0.09, last.ExpectedReturn, 1e-3)
		for _, pt := range frontier.Points {
			for ticker, w := range pt.Weights {
				assert.LessOrEqualf(t, w, 0.5+1e-6, "weight cap exceeded for %s", ticker)
			}
		}
	})

	t.Run("impossible cap is infeasible", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		_, err := engine.EfficientFrontier(ctx, cov, expected, interfaces.Constraints{MaxWeight: 0.2}, 5, 0)
		var infeasible *models.InfeasibleConstraintError
		assert.True(t, errors.As(err, &infeasible))
	})

	t.Run("sector limit flags unreachable targets", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		cons := interfaces.Constraints{
			SectorOf:     map[string]string{"AAA": "tech", "BBB": "tech", "CCC": "energy"},
			SectorLimits: map[string]float64{"tech": 0.5},
		}
		frontier, err := engine.EfficientFrontier(ctx, cov, expected, cons, 9, 0)
		require.NoError(t, err)

		// Targets above the sector-capped maximum of 0.5*0.10 + 0.5*0.08
		// cannot be reached.
		assert.NotEmpty(t, frontier.InfeasibleTargets)
		for _, pt := range frontier.Points {
			assert.LessOrEqual(t, pt.Weights["AAA"]+pt.Weights["BBB"], 0.5+1e-4)
		}
	})

	t.Run("shorting lowers the variance at a low target", func(t *testing.T) {
		// One high-variance low-return asset next to two cheap ones.
		// Hitting a 2% return long-only forces everything into AAA
		// (variance 0.09); with shorting the solver funds BBB by
		// shorting CCC and lands on [0.5, 1, -0.5] (variance 0.035).
		cov := testCovariance([]string{"AAA", "BBB", "CCC"}, []float64{
			0.09, 0, 0,
			0, 0.01, 0,
			0, 0, 0.01,
		})
		expected := []float64{0.02, 0.06, 0.10}

		longOnly, err := newProblem(cov, expected, interfaces.Constraints{}, 0)
		require.NoError(t, err)
		w, err := longOnly.solve(ctx, 0.02, longOnly.targetPenalty(), 0)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w[0], 1e-2)

		short, err := newProblem(cov, expected, interfaces.Constraints{AllowShort: true}, 0)
		require.NoError(t, err)
		w, err = short.solve(ctx, 0.02, short.targetPenalty(), 0)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, w[0], 2e-2)
		assert.InDelta(t, 1.0, w[1], 2e-2)
		assert.InDelta(t, -0.5, w[2], 2e-2)
		assert.Less(t, cov.PortfolioVariance(w), 0.05)
	})

	t.Run("shorting widens the target range", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		frontier, err := engine.EfficientFrontier(ctx, cov, expected, interfaces.Constraints{AllowShort: true}, 9, 0)
		require.NoError(t, err)
		require.NotEmpty(t, frontier.Points)

		// Long-only caps the return at the best single asset; the
		// short book reaches beyond it.
		last := frontier.Points[len(frontier.Points)-1]
		assert.Greater(t, last.ExpectedReturn, 0.10)
		sum := 0.0
		for _, w := range last.Weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	})

	t.Run("cancelled context stops the sweep", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := engine.EfficientFrontier(cancelled, cov, expected, interfaces.Constraints{}, 5, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTangencyPortfolio(t *testing.T) {
	engine := NewEngine(nil)
	ctx := context.Background()

	t.Run("uncorrelated pair matches closed form", func(t *testing.T) {
		cov := testCovariance([]string{"AAA", "BBB"}, []float64{
			0.04, 0,
			0, 0.09,
		})
		expected := []float64{0.05, 0.10}

		p, err := engine.TangencyPortfolio(ctx, cov, expected, 0, interfaces.Constraints{}, 0)
		require.NoError(t, err)
		require.NoError(t, p.Validate())

		// w ∝ Σ⁻¹μ: (1.25, 1.111) normalized.
		w := p.WeightVector([]string{"AAA", "BBB"})
		assert.InDelta(t, 0.5294, w[0], 0.01)
		assert.InDelta(t, 0.4706, w[1], 0.01)
	})

	t.Run("respects the per asset cap", func(t *testing.T) {
		cov, expected := threeAssetUniverse()
		p, err := engine.TangencyPortfolio(ctx, cov, expected, 0.02, interfaces.Constraints{MaxWeight: 0.6}, 0)
		require.NoError(t, err)
		for _, h := range p.Holdings {
			assert.LessOrEqual(t, h.Weight, 0.6+1e-6)
		}
	})

	t.Run("carries the shorting flag onto the portfolio", func(t *testing.T) {
		cov, expected := threeAssetUniverse()

		p, err := engine.TangencyPortfolio(ctx, cov, expected, 0.02, interfaces.Constraints{AllowShort: true}, 0)
		require.NoError(t, err)
		assert.True(t, p.AllowShort)
		require.NoError(t, p.Validate())

		p, err = engine.TangencyPortfolio(ctx, cov, expected, 0.02, interfaces.Constraints{}, 0)
		require.NoError(t, err)
		assert.False(t, p.AllowShort)
		for _, h := range p.Holdings {
			assert.GreaterOrEqual(t, h.Weight, -1e-9)
		}
	})
}
