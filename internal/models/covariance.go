package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CovarianceMatrix is a square, symmetric, positive-semi-definite matrix
// over an asset universe. The annualization factor is explicit (252 for
// daily observations). Instances are built fresh per computation and never
// mutated in place.
type CovarianceMatrix struct {
	Tickers             []string
	Data                *mat.SymDense
	AnnualizationFactor float64
}

// Dim returns the number of assets covered.
func (c *CovarianceMatrix) Dim() int {
	return len(c.Tickers)
}

// At returns the covariance between assets i and j.
func (c *CovarianceMatrix) At(i, j int) float64 {
	return c.Data.At(i, j)
}

// Variance returns the diagonal entry for asset i.
func (c *CovarianceMatrix) Variance(i int) float64 {
	return c.Data.At(i, i)
}

// PortfolioVariance computes w'Σw for a weight vector ordered by Tickers.
func (c *CovarianceMatrix) PortfolioVariance(w []float64) float64 {
	v := 0.0
	for i := range w {
		for j := range w {
			v += w[i] * w[j] * c.Data.At(i, j)
		}
	}
	return v
}

// Correlation derives the correlation matrix. Zero-variance assets yield
// zero correlation entries rather than NaN; callers that need a hard
// failure on degenerate input should validate the covariance first.
func (c *CovarianceMatrix) Correlation() *mat.SymDense {
	n := c.Dim()
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			si := math.Sqrt(c.Data.At(i, i))
			sj := math.Sqrt(c.Data.At(j, j))
			if si > 0 && sj > 0 {
				v := c.Data.At(i, j) / (si * sj)
				// Clamp floating noise to [-1, 1].
				corr.SetSym(i, j, math.Max(-1, math.Min(1, v)))
			}
		}
	}
	return corr
}

// CorrelationRows returns the correlation matrix as nested slices for the
// serializable output boundary.
func (c *CovarianceMatrix) CorrelationRows() [][]float64 {
	corr := c.Correlation()
	n := c.Dim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = corr.At(i, j)
		}
	}
	return rows
}
