package statistics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/models"
)

// VolatilityIterator yields trailing standard deviations one window at a
// time. It is finite and non-restartable: once drained it stays exhausted.
type VolatilityIterator struct {
	returns []float64
	window  int
	pos     int
}

// RollingVolatility returns a lazy iterator over the trailing standard
// deviation of `window` observations. The sequence has length
// len(returns) - window + 1. Fails with InvalidWindowError when window < 2
// or window > len(returns).
func (e *Engine) RollingVolatility(returns []float64, window int) (*VolatilityIterator, error) {
	if window < 2 || window > len(returns) {
		return nil, &models.InvalidWindowError{Window: window, Length: len(returns)}
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &models.InvalidInputError{Index: i, Reason: "non-finite return"}
		}
	}
	return &VolatilityIterator{returns: returns, window: window}, nil
}

// Len reports how many values remain.
func (it *VolatilityIterator) Len() int {
	remaining := len(it.returns) - it.window + 1 - it.pos
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Next yields the next trailing volatility. The second return is false once
// the sequence is exhausted.
func (it *VolatilityIterator) Next() (float64, bool) {
	if it.pos > len(it.returns)-it.window {
		return 0, false
	}
	v := stat.StdDev(it.returns[it.pos:it.pos+it.window], nil)
	it.pos++
	return v, true
}

// Collect drains the remaining values into a slice.
func (it *VolatilityIterator) Collect() []float64 {
	out := make([]float64, 0, it.Len())
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
