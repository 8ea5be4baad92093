// Package optimization computes mean-variance efficient frontiers and
// tangency portfolios under budget, per-asset cap, sector cap, and
// optional shorting constraints. Long-only is the default.
package optimization

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/riskcore/internal/common"
	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

const (
	defaultFrontierPoints = 25
	defaultMaxIterations  = 10000

	// convergeTol stops the accelerated projected gradient descent once
	// the weight update settles below it.
	convergeTol = 1e-9

	// returnMissTol flags a target as infeasible when the converged
	// portfolio misses it by more than this fraction of the achievable
	// return spread.
	returnMissTol = 1e-2

	// sectorViolationTol bounds the permitted sector cap overshoot of a
	// converged solution.
	sectorViolationTol = 1e-6
)

// Engine implements the optimization service
type Engine struct {
	logger *common.Logger
}

// NewEngine creates a new optimization engine
func NewEngine(logger *common.Logger) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{logger: logger}
}

// problem is one validated optimization instance over the asset universe.
type problem struct {
	tickers  []string
	cov      *models.CovarianceMatrix
	expected []float64
	cap      float64
	floor    float64 // per-asset lower bound, -cap when shorting is allowed
	sectors  []sectorCap
	maxIter  int

	traceBound float64 // upper bound on the largest covariance eigenvalue
	muNormSq   float64
}

type sectorCap struct {
	name    string
	cap     float64
	members []int
}

func newProblem(cov *models.CovarianceMatrix, expected []float64, cons interfaces.Constraints, maxIter int) (*problem, error) {
	n := cov.Dim()
	if n == 0 {
		return nil, &models.InsufficientDataError{Required: 1, Actual: 0, What: "optimization universe"}
	}
	if len(expected) != n {
		return nil, &models.InvalidInputError{Index: -1, Reason: "expected return vector length does not match covariance"}
	}
	for i, m := range expected {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, &models.InvalidInputError{Ticker: cov.Tickers[i], Index: i, Reason: "non-finite expected return"}
		}
	}
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	cap := cons.MaxWeight
	if cap <= 0 || cap > 1 {
		cap = 1
	}
	if cap*float64(n) < 1-1e-12 {
		return nil, &models.InfeasibleConstraintError{Reason: "per-asset cap too small to allocate full budget"}
	}
	floor := 0.0
	if cons.AllowShort {
		floor = -cap
	}

	p := &problem{
		tickers:  cov.Tickers,
		cov:      cov,
		expected: expected,
		cap:      cap,
		floor:    floor,
		maxIter:  maxIter,
	}

	for sector, limit := range cons.SectorLimits {
		sc := sectorCap{name: sector, cap: limit}
		for i, ticker := range cov.Tickers {
			if cons.SectorOf[ticker] == sector {
				sc.members = append(sc.members, i)
			}
		}
		if len(sc.members) == 0 {
			continue
		}
		// Assets outside the sector must be able to carry the rest.
		outside := float64(n-len(sc.members)) * cap
		if outside < 1-limit-1e-12 {
			return nil, &models.InfeasibleConstraintError{Reason: "sector cap on " + sector + " leaves no feasible allocation"}
		}
		p.sectors = append(p.sectors, sc)
	}
	sort.Slice(p.sectors, func(i, j int) bool { return p.sectors[i].name < p.sectors[j].name })

	for i := 0; i < n; i++ {
		p.traceBound += cov.At(i, i)
		p.muNormSq += expected[i] * expected[i]
	}
	return p, nil
}

// returnRange computes the achievable expected-return span under the
// weight box by greedily raising assets from the floor to the cap in
// return order until the budget is spent.
func (p *problem) returnRange() (lo, hi float64) {
	idx := make([]int, len(p.expected))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return p.expected[idx[a]] < p.expected[idx[b]] })

	fill := func(order []int) float64 {
		ret := 0.0
		for _, m := range p.expected {
			ret += p.floor * m
		}
		budget := 1.0 - p.floor*float64(len(p.expected))
		span := p.cap - p.floor
		for _, i := range order {
			w := math.Min(span, budget)
			ret += w * p.expected[i]
			budget -= w
			if budget <= 0 {
				break
			}
		}
		return ret
	}

	lo = fill(idx)
	rev := make([]int, len(idx))
	for i, v := range idx {
		rev[len(idx)-1-i] = v
	}
	hi = fill(rev)
	return lo, hi
}

// solve minimizes w'Σw + retPenalty*(w·μ - target)² - lambda*w·μ over the
// feasible set by accelerated projected gradient descent with gradient
// restarts. The frontier sweep uses the target penalty (lambda = 0); the
// tangency scan uses the linear term (retPenalty = 0). Fails with
// OptimizationDidNotConvergeError when the updates never settle within the
// iteration budget.
func (p *problem) solve(ctx context.Context, target, retPenalty, lambda float64) ([]float64, error) {
	n := len(p.expected)

	// Lipschitz bound of the gradient of the smooth objective.
	lip := 2 * (p.traceBound + retPenalty*p.muNormSq + 1e-12)
	step := 1.0 / lip

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	w = p.projectFeasible(w)

	y := make([]float64, n)
	copy(y, w)
	grad := make([]float64, n)
	trial := make([]float64, n)
	momentum := 1.0
	lastDelta := math.Inf(1)

	for iter := 0; iter < p.maxIter; iter++ {
		if iter%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		for i := 0; i < n; i++ {
			g := 0.0
			for j := 0; j < n; j++ {
				g += p.cov.At(i, j) * y[j]
			}
			grad[i] = 2*g - lambda*p.expected[i]
		}
		if retPenalty > 0 {
			miss := dot(y, p.expected) - target
			for i := 0; i < n; i++ {
				grad[i] += 2 * retPenalty * miss * p.expected[i]
			}
		}

		for i := 0; i < n; i++ {
			trial[i] = y[i] - step*grad[i]
		}
		next := p.projectFeasible(trial)

		delta := 0.0
		restart := 0.0
		for i := 0; i < n; i++ {
			d := next[i] - w[i]
			if a := math.Abs(d); a > delta {
				delta = a
			}
			restart += (y[i] - next[i]) * d
		}

		if delta < convergeTol {
			return next, nil
		}

		// Gradient restart keeps the momentum from oscillating.
		if restart > 0 {
			momentum = 1
		}
		prev := momentum
		momentum = (1 + math.Sqrt(1+4*prev*prev)) / 2
		beta := (prev - 1) / momentum
		for i := 0; i < n; i++ {
			y[i] = next[i] + beta*(next[i]-w[i])
		}
		copy(w, next)
		lastDelta = delta
	}

	return nil, &models.OptimizationDidNotConvergeError{Iterations: p.maxIter, Residual: lastDelta}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// targetPenalty scales the quadratic return penalty so a converged solve
// misses its target by far less than returnMissTol.
func (p *problem) targetPenalty() float64 {
	scale := p.muNormSq
	if scale < 1e-12 {
		scale = 1e-12
	}
	return 1e4 * (p.traceBound + 1e-12) / scale
}

// sectorViolation returns the worst sector cap overshoot of w.
func (p *problem) sectorViolation(w []float64) float64 {
	worst := 0.0
	for _, sc := range p.sectors {
		exposure := 0.0
		for _, i := range sc.members {
			exposure += w[i]
		}
		if excess := exposure - sc.cap; excess > worst {
			worst = excess
		}
	}
	return worst
}

func (p *problem) point(w []float64) models.FrontierPoint {
	weights := make(map[string]float64, len(w))
	for i, ticker := range p.tickers {
		weights[ticker] = w[i]
	}
	return models.FrontierPoint{
		ExpectedReturn: dot(w, p.expected),
		Volatility:     math.Sqrt(math.Max(0, p.cov.PortfolioVariance(w))),
		Weights:        weights,
	}
}

// EfficientFrontier sweeps evenly spaced return targets across the
// achievable range, solving a minimum-variance problem per target.
// Targets the constraint set cannot reach are listed in InfeasibleTargets
// instead of failing the sweep. Points come back ordered by ascending
// volatility with dominated points removed.
func (e *Engine) EfficientFrontier(ctx context.Context, cov *models.CovarianceMatrix, expected []float64, cons interfaces.Constraints, points, maxIter int) (*models.Frontier, error) {
	if points <= 0 {
		points = defaultFrontierPoints
	}
	if points < 2 {
		return nil, &models.InvalidInputError{Index: -1, Reason: "frontier needs at least 2 points"}
	}

	prob, err := newProblem(cov, expected, cons, maxIter)
	if err != nil {
		return nil, err
	}

	lo, hi := prob.returnRange()
	spread := hi - lo
	targets := make([]float64, points)
	for i := range targets {
		targets[i] = lo + spread*float64(i)/float64(points-1)
	}

	type result struct {
		weights []float64
		miss    float64
	}
	results := make([]result, points)
	retPenalty := prob.targetPenalty()

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			w, err := prob.solve(gctx, target, retPenalty, 0)
			if err != nil {
				return err
			}
			results[i] = result{weights: w, miss: math.Abs(dot(w, prob.expected) - target)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	missTol := returnMissTol * math.Max(spread, 1e-9)
	frontier := &models.Frontier{}
	for i, r := range results {
		if r.miss > missTol || prob.sectorViolation(r.weights) > sectorViolationTol {
			frontier.InfeasibleTargets = append(frontier.InfeasibleTargets, targets[i])
			continue
		}
		frontier.Points = append(frontier.Points, prob.point(r.weights))
	}

	sort.Slice(frontier.Points, func(a, b int) bool {
		return frontier.Points[a].Volatility < frontier.Points[b].Volatility
	})

	// Drop dominated points: moving right along the curve must raise the
	// expected return.
	cleaned := frontier.Points[:0]
	bestReturn := math.Inf(-1)
	for _, pt := range frontier.Points {
		if pt.ExpectedReturn > bestReturn {
			cleaned = append(cleaned, pt)
			bestReturn = pt.ExpectedReturn
		}
	}
	frontier.Points = cleaned

	e.logger.Debug().
		Int("targets", points).
		Int("kept", len(frontier.Points)).
		Int("infeasible", len(frontier.InfeasibleTargets)).
		Msg("Efficient frontier computed")

	return frontier, nil
}
