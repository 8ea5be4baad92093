package risk

import (
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// mcChunkSize fixes the path count per worker chunk. Chunk seeds derive
// from the base seed and the chunk index, so results are bit-identical for
// a given seed regardless of how many goroutines run the chunks.
const mcChunkSize = 2048

// MonteCarloVaR estimates VaR and expected shortfall by simulating
// correlated multivariate normal return paths over the horizon. Draws are
// correlated through the Cholesky factor of the per-period sample
// covariance; a clamped eigendecomposition stands in when the matrix is
// singular but still PSD.
func (e *Engine) MonteCarloVaR(rs *models.ReturnSeries, p *models.Portfolio, params interfaces.RiskParams) (models.VaREstimate, error) {
	params, err := NormalizeParams(params)
	if err != nil {
		return models.VaREstimate{}, err
	}
	if err := rs.Validate(); err != nil {
		return models.VaREstimate{}, err
	}
	if err := p.Validate(); err != nil {
		return models.VaREstimate{}, err
	}
	if rs.Length() < 2 {
		return models.VaREstimate{}, &models.InsufficientDataError{Required: 2, Actual: rs.Length(), What: "monte carlo VaR"}
	}

	n := len(rs.Tickers)
	obs := rs.Length()
	w := p.WeightVector(rs.Tickers)

	mu := make([]float64, n)
	data := mat.NewDense(obs, n, nil)
	for j, ticker := range rs.Tickers {
		series := rs.Returns[ticker]
		mu[j] = stat.Mean(series, nil)
		for i := 0; i < obs; i++ {
			data.Set(i, j, series[i])
		}
	}
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, data, nil)

	factor, err := factorCovariance(cov)
	if err != nil {
		return models.VaREstimate{}, err
	}

	terminal := make([]float64, params.MonteCarloPaths)
	chunks := (params.MonteCarloPaths + mcChunkSize - 1) / mcChunkSize

	g := errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := 0; c < chunks; c++ {
		offset := c * mcChunkSize
		count := mcChunkSize
		if offset+count > params.MonteCarloPaths {
			count = params.MonteCarloPaths - offset
		}
		seed := params.MonteCarloSeed + int64(c)
		g.Go(func() error {
			simulateChunk(terminal[offset:offset+count], seed, mu, factor, w, params.HorizonDays)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.VaREstimate{}, err
	}

	alpha := 1 - params.Confidence
	sort.Float64s(terminal)
	q := quantile(terminal, alpha)
	varEst := -q

	tailSum, tailN := 0.0, 0
	for _, r := range terminal {
		if r > q {
			break
		}
		tailSum += r
		tailN++
	}
	cvar := varEst
	if tailN > 0 {
		cvar = -(tailSum / float64(tailN))
		if cvar < varEst {
			cvar = varEst
		}
	}

	e.logger.Debug().
		Int("paths", params.MonteCarloPaths).
		Int64("seed", params.MonteCarloSeed).
		Int("horizon_days", params.HorizonDays).
		Float64("var", varEst).
		Msg("Monte Carlo simulation complete")

	return models.VaREstimate{Method: "monte_carlo", VaR: varEst, CVaR: cvar}, nil
}

// simulateChunk fills dst with terminal portfolio returns for one chunk.
// Each chunk owns its rng, seeded deterministically.
func simulateChunk(dst []float64, seed int64, mu []float64, factor *mat.Dense, w []float64, horizonDays int) {
	rng := rand.New(rand.NewSource(seed))
	n := len(mu)
	z := make([]float64, n)
	for p := range dst {
		wealth := 1.0
		for d := 0; d < horizonDays; d++ {
			for i := range z {
				z[i] = rng.NormFloat64()
			}
			period := 0.0
			for i := 0; i < n; i++ {
				r := mu[i]
				for j := 0; j < n; j++ {
					r += factor.At(i, j) * z[j]
				}
				period += w[i] * r
			}
			wealth *= 1 + period
		}
		dst[p] = wealth - 1
	}
}

// factorCovariance returns a matrix L with LL' = cov. Cholesky handles the strictly positive definite case; the
// eigendecomposition fallback clamps small negative eigenvalues so
// singular PSD matrices (perfectly anti-correlated pairs) still factor.
func factorCovariance(cov *mat.SymDense) (*mat.Dense, error) {
	n := cov.SymmetricDim()

	var chol mat.Cholesky
	if chol.Factorize(cov) {
		var l mat.TriDense
		chol.LTo(&l)
		out := mat.NewDense(n, n, nil)
		out.Copy(&l)
		return out, nil
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, &models.DegenerateInputError{Reason: "covariance eigendecomposition failed"}
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	out := mat.NewDense(n, n, nil)
	for j, v := range vals {
		if v < 0 {
			if v < -1e-8 {
				return nil, &models.DegenerateInputError{Reason: "covariance matrix is not positive semi-definite"}
			}
			v = 0
		}
		s := math.Sqrt(v)
		for i := 0; i < n; i++ {
			out.Set(i, j, vecs.At(i, j)*s)
		}
	}
	return out, nil
}
