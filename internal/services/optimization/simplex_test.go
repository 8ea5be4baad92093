package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/riskcore/internal/interfaces"
)

func TestProjectBudgetBox(t *testing.T) {
	t.Run("lands on the simplex", func(t *testing.T) {
		w := projectBudgetBox([]float64{0.9, -0.3, 0.7, 0.1}, 1, 0, 1)
		sum := 0.0
		for _, x := range w {
			require.GreaterOrEqual(t, x, 0.0)
			require.LessOrEqual(t, x, 1.0)
			sum += x
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("feasible point is a fixed point", func(t *testing.T) {
		v := []float64{0.25, 0.25, 0.5}
		w := projectBudgetBox(v, 1, 0, 1)
		for i := range v {
			assert.InDelta(t, v[i], w[i], 1e-9)
		}
	})

	t.Run("cap binds", func(t *testing.T) {
		w := projectBudgetBox([]float64{5, 0, 0, 0}, 1, 0, 0.4)
		assert.InDelta(t, 0.4, w[0], 1e-9)
		sum := 0.0
		for _, x := range w {
			sum += x
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("negative floor keeps short positions", func(t *testing.T) {
		// Interior point: no clamp binds, so the shift is uniform and the
		// negative coordinate survives.
		w := projectBudgetBox([]float64{0.9, 0.9, -0.9}, 1, -1, 1)
		assert.InDelta(t, 0.9+1.0/30, w[0], 1e-9)
		assert.InDelta(t, w[0], w[1], 1e-9)
		assert.InDelta(t, -0.9+1.0/30, w[2], 1e-9)

		sum := 0.0
		for _, x := range w {
			sum += x
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("floor binds", func(t *testing.T) {
		// Only the third coordinate clamps; the free pair split the rest.
		w := projectBudgetBox([]float64{2, 2, -5}, 1, -0.5, 1)
		assert.InDelta(t, -0.5, w[2], 1e-9)
		assert.InDelta(t, 0.75, w[0], 1e-6)
		assert.InDelta(t, 0.75, w[1], 1e-6)
	})
}

func TestProjectFeasibleSectors(t *testing.T) {
	cov := testCovariance([]string{"AAA", "BBB", "CCC"}, []float64{
		0.04, 0, 0,
		0, 0.09, 0,
		0, 0, 0.0625,
	})
	prob, err := newProblem(cov, []float64{0.05, 0.10, 0.08}, interfaces.Constraints{
		SectorOf:     map[string]string{"AAA": "tech", "BBB": "tech", "CCC": "energy"},
		SectorLimits: map[string]float64{"tech": 0.5},
	}, 0)
	require.NoError(t, err)

	w := prob.projectFeasible([]float64{0.6, 0.6, -0.2})
	sum := 0.0
	for _, x := range w {
		require.GreaterOrEqual(t, x, -1e-9)
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.LessOrEqual(t, w[0]+w[1], 0.5+1e-6)
}
