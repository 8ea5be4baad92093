package optimization

import (
	"context"
	"math"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// TangencyPortfolio maximizes the Sharpe ratio over the constrained
// frontier. The ratio itself is not convex, so the search scans a
// risk-aversion grid — each lambda yields the convex problem
// min w'Σw - lambda*w·μ — brackets the best Sharpe, and refines lambda by
// golden section. Fails with DegenerateInputError when every candidate
// carries zero volatility.
func (e *Engine) TangencyPortfolio(ctx context.Context, cov *models.CovarianceMatrix, expected []float64, riskFree float64, cons interfaces.Constraints, maxIter int) (*models.Portfolio, error) {
	if math.IsNaN(riskFree) || math.IsInf(riskFree, 0) {
		return nil, &models.InvalidInputError{Index: -1, Reason: "non-finite risk-free rate"}
	}

	prob, err := newProblem(cov, expected, cons, maxIter)
	if err != nil {
		return nil, err
	}

	sharpe := func(w []float64) float64 {
		vol := math.Sqrt(math.Max(0, cov.PortfolioVariance(w)))
		if vol < 1e-12 {
			return math.Inf(-1)
		}
		return (dot(w, prob.expected) - riskFree) / vol
	}

	// lambda scale where the variance and return gradients balance.
	muMax := 0.0
	for _, m := range prob.expected {
		if a := math.Abs(m); a > muMax {
			muMax = a
		}
	}
	if muMax < 1e-12 {
		muMax = 1e-12
	}
	scale := 2 * prob.traceBound / muMax

	const gridSize = 25
	logLo, logHi := -3.0, 3.0
	bestSharpe := math.Inf(-1)
	bestIdx := -1
	var bestW []float64

	grid := make([]float64, gridSize)
	for i := range grid {
		grid[i] = logLo + (logHi-logLo)*float64(i)/float64(gridSize-1)
	}
	for i, lg := range grid {
		w, err := prob.solve(ctx, 0, 0, scale*math.Pow(10, lg))
		if err != nil {
			return nil, err
		}
		if s := sharpe(w); s > bestSharpe {
			bestSharpe, bestIdx, bestW = s, i, w
		}
	}
	if bestIdx < 0 || math.IsInf(bestSharpe, -1) {
		return nil, &models.DegenerateInputError{Reason: "no candidate portfolio has positive volatility"}
	}

	// Golden-section refinement of log-lambda between the bracket
	// neighbors of the grid optimum.
	lo := grid[max(bestIdx-1, 0)]
	hi := grid[min(bestIdx+1, gridSize-1)]
	const phi = 0.6180339887498949
	a, b := lo, hi
	for i := 0; i < 30; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x1 := b - phi*(b-a)
		x2 := a + phi*(b-a)
		w1, err := prob.solve(ctx, 0, 0, scale*math.Pow(10, x1))
		if err != nil {
			return nil, err
		}
		w2, err := prob.solve(ctx, 0, 0, scale*math.Pow(10, x2))
		if err != nil {
			return nil, err
		}
		s1, s2 := sharpe(w1), sharpe(w2)
		if s1 > bestSharpe {
			bestSharpe, bestW = s1, w1
		}
		if s2 > bestSharpe {
			bestSharpe, bestW = s2, w2
		}
		if s1 < s2 {
			a = x1
		} else {
			b = x2
		}
	}

	e.logger.Debug().
		Float64("sharpe", bestSharpe).
		Msg("Tangency portfolio found")

	holdings := make([]models.Holding, len(prob.tickers))
	for i, ticker := range prob.tickers {
		holdings[i] = models.Holding{Ticker: ticker, Weight: bestW[i]}
	}
	return &models.Portfolio{Holdings: holdings, AllowShort: cons.AllowShort}, nil
}
