package models

import "fmt"

// InsufficientDataError reports an operation that needs more observations
// than the input provides.
type InsufficientDataError struct {
	Required int
	Actual   int
	What     string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d observations, have %d", e.What, e.Required, e.Actual)
}

// InvalidInputError names the offending asset and observation index when
// inputs fail validation. Index is -1 when no single observation is at
// fault.
type InvalidInputError struct {
	Ticker string
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.Ticker != "" && e.Index >= 0:
		return fmt.Sprintf("invalid input for %s at index %d: %s", e.Ticker, e.Index, e.Reason)
	case e.Ticker != "":
		return fmt.Sprintf("invalid input for %s: %s", e.Ticker, e.Reason)
	case e.Index >= 0:
		return fmt.Sprintf("invalid input at index %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
}

// DegenerateInputError reports input that is structurally valid but
// statistically unusable, such as a constant return series.
type DegenerateInputError struct {
	Ticker string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("degenerate input for %s: %s", e.Ticker, e.Reason)
	}
	return fmt.Sprintf("degenerate input: %s", e.Reason)
}

// InvalidWindowError reports a rolling window that cannot fit the series.
type InvalidWindowError struct {
	Window int
	Length int
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window %d for series of length %d: want 2 <= window <= length", e.Window, e.Length)
}

// ZeroVolatilityError reports a ratio metric whose denominator volatility
// is zero. The mean excess return is carried so callers can still report
// the sign of performance.
type ZeroVolatilityError struct {
	MeanExcess float64
}

func (e *ZeroVolatilityError) Error() string {
	return fmt.Sprintf("zero volatility: ratio undefined (mean excess return %.6g)", e.MeanExcess)
}

// RankDeficientError reports a regression design matrix without full
// column rank.
type RankDeficientError struct {
	Rank    int
	Columns int
}

func (e *RankDeficientError) Error() string {
	return fmt.Sprintf("rank-deficient design matrix: rank %d of %d columns", e.Rank, e.Columns)
}

// OptimizationDidNotConvergeError reports an optimizer that exhausted its
// iteration budget before meeting tolerance.
type OptimizationDidNotConvergeError struct {
	Iterations int
	Residual   float64
}

func (e *OptimizationDidNotConvergeError) Error() string {
	return fmt.Sprintf("optimization did not converge after %d iterations (residual %.6g)", e.Iterations, e.Residual)
}

// InfeasibleConstraintError reports a constraint set that admits no weight
// vector, such as per-asset caps that cannot sum to 1.
type InfeasibleConstraintError struct {
	Reason string
}

func (e *InfeasibleConstraintError) Error() string {
	return fmt.Sprintf("infeasible constraints: %s", e.Reason)
}
