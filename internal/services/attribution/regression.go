package attribution

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/models"
)

// rankTol is the relative singular value cutoff for declaring the design
// matrix rank deficient.
const rankTol = 1e-10

// FactorAttribution regresses the portfolio return series on the named
// factor series (with intercept) and splits the mean return into per-factor
// contributions beta_f * mean(factor) plus an idiosyncratic remainder.
// Duplicate or collinear factors fail with RankDeficientError rather than
// producing unstable betas.
func (e *Engine) FactorAttribution(portfolioReturns []float64, factors map[string][]float64) (*models.AttributionReport, error) {
	if len(factors) == 0 {
		return nil, &models.InsufficientDataError{Required: 1, Actual: 0, What: "factor series"}
	}

	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)

	obs := len(portfolioReturns)
	cols := len(names) + 1
	if obs < cols+1 {
		return nil, &models.InsufficientDataError{Required: cols + 1, Actual: obs, What: "factor regression"}
	}
	for i, r := range portfolioReturns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &models.InvalidInputError{Index: i, Reason: "non-finite return"}
		}
	}

	design := mat.NewDense(obs, cols, nil)
	for i := 0; i < obs; i++ {
		design.Set(i, 0, 1)
	}
	for j, name := range names {
		series := factors[name]
		if len(series) != obs {
			return nil, &models.InvalidInputError{Ticker: name, Index: -1, Reason: "factor series length does not match portfolio returns"}
		}
		for i, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &models.InvalidInputError{Ticker: name, Index: i, Reason: "non-finite factor value"}
			}
			design.Set(i, j+1, v)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(design, mat.SVDThin) {
		return nil, &models.DegenerateInputError{Reason: "design matrix factorization failed"}
	}
	values := svd.Values(nil)
	rank := 0
	for _, s := range values {
		if s > rankTol*values[0] {
			rank++
		}
	}
	if rank < cols {
		return nil, &models.RankDeficientError{Rank: rank, Columns: cols}
	}

	y := mat.NewVecDense(obs, portfolioReturns)
	var coef mat.VecDense
	svd.SolveVecTo(&coef, y, rank)

	fitted := mat.NewVecDense(obs, nil)
	fitted.MulVec(design, &coef)

	meanY := stat.Mean(portfolioReturns, nil)
	ssTot, ssRes := 0.0, 0.0
	for i := 0; i < obs; i++ {
		d := portfolioReturns[i] - meanY
		ssTot += d * d
		r := portfolioReturns[i] - fitted.AtVec(i)
		ssRes += r * r
	}
	rsq := 0.0
	if ssTot > 0 {
		rsq = 1 - ssRes/ssTot
	}

	report := &models.AttributionReport{
		FactorBetas:   make(map[string]float64, len(names)),
		FactorReturns: make(map[string]float64, len(names)),
		RSquared:      rsq,
	}
	explained := 0.0
	for j, name := range names {
		beta := coef.AtVec(j + 1)
		contrib := beta * stat.Mean(factors[name], nil)
		report.FactorBetas[name] = beta
		report.FactorReturns[name] = contrib
		explained += contrib
	}
	report.Idiosyncratic = meanY - explained

	return report, nil
}
