package models

import (
	"math"
	"sort"
	"time"
)

// ReturnMethod selects how period returns are derived from prices.
type ReturnMethod string

const (
	ReturnSimple ReturnMethod = "simple" // P_t/P_{t-1} - 1
	ReturnLog    ReturnMethod = "log"    // ln(P_t/P_{t-1})
)

// ReturnSeries holds per-asset return series aligned onto a shared date
// axis. Every series has the same length; Dates[i] is the period-end date
// of observation i.
type ReturnSeries struct {
	Tickers []string             `json:"tickers"`
	Dates   []time.Time          `json:"dates"`
	Returns map[string][]float64 `json:"returns"`
	Method  ReturnMethod         `json:"method"`
}

// NewReturnSeries aligns the assets on their shared dates (inner join) and
// derives period returns. At least 3 shared prices are required to produce
// the 2 returns the downstream statistics need.
func NewReturnSeries(assets []*Asset, method ReturnMethod) (*ReturnSeries, error) {
	if method != ReturnSimple && method != ReturnLog {
		return nil, &InvalidInputError{Index: -1, Reason: "unknown return method " + string(method)}
	}
	if len(assets) == 0 {
		return nil, &InsufficientDataError{Required: 1, Actual: 0, What: "return series"}
	}

	counts := make(map[int64]int)
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		for _, bar := range a.Bars {
			counts[bar.Date.UnixNano()]++
		}
	}

	shared := make([]int64, 0, len(counts))
	for ts, n := range counts {
		if n == len(assets) {
			shared = append(shared, ts)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	if len(shared) < 3 {
		return nil, &InsufficientDataError{Required: 3, Actual: len(shared), What: "shared price observations"}
	}

	keep := make(map[int64]bool, len(shared))
	for _, ts := range shared {
		keep[ts] = true
	}

	rs := &ReturnSeries{
		Tickers: make([]string, 0, len(assets)),
		Dates:   make([]time.Time, 0, len(shared)-1),
		Returns: make(map[string][]float64, len(assets)),
		Method:  method,
	}
	for i := 1; i < len(shared); i++ {
		rs.Dates = append(rs.Dates, time.Unix(0, shared[i]).UTC())
	}

	for _, a := range assets {
		if _, dup := rs.Returns[a.Ticker]; dup {
			return nil, &InvalidInputError{Ticker: a.Ticker, Index: -1, Reason: "duplicate asset"}
		}
		closes := make([]float64, 0, len(shared))
		for _, bar := range a.Bars {
			if keep[bar.Date.UnixNano()] {
				closes = append(closes, bar.Close)
			}
		}
		series := make([]float64, len(closes)-1)
		for i := 1; i < len(closes); i++ {
			if method == ReturnLog {
				series[i-1] = math.Log(closes[i] / closes[i-1])
			} else {
				series[i-1] = closes[i]/closes[i-1] - 1
			}
		}
		rs.Tickers = append(rs.Tickers, a.Ticker)
		rs.Returns[a.Ticker] = series
	}
	sort.Strings(rs.Tickers)

	return rs, nil
}

// Length returns the number of aligned observations.
func (rs *ReturnSeries) Length() int {
	return len(rs.Dates)
}

// Validate enforces the alignment invariants: every ticker has a series of
// the shared length and all values are finite.
func (rs *ReturnSeries) Validate() error {
	if len(rs.Tickers) == 0 {
		return &InsufficientDataError{Required: 1, Actual: 0, What: "return series"}
	}
	n := rs.Length()
	for _, ticker := range rs.Tickers {
		series, ok := rs.Returns[ticker]
		if !ok {
			return &InvalidInputError{Ticker: ticker, Index: -1, Reason: "missing return series"}
		}
		if len(series) != n {
			return &InvalidInputError{Ticker: ticker, Index: -1, Reason: "return series length does not match date axis"}
		}
		for i, r := range series {
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return &InvalidInputError{Ticker: ticker, Index: i, Reason: "non-finite return"}
			}
		}
	}
	return nil
}

// WeightedReturns collapses the aligned series into a single portfolio
// return series under the portfolio's weights.
func (rs *ReturnSeries) WeightedReturns(p *Portfolio) ([]float64, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, h := range p.Holdings {
		if _, ok := rs.Returns[h.Ticker]; !ok {
			return nil, &InvalidInputError{Ticker: h.Ticker, Index: -1, Reason: "holding has no return series"}
		}
	}

	out := make([]float64, rs.Length())
	for _, h := range p.Holdings {
		series := rs.Returns[h.Ticker]
		for i, r := range series {
			out[i] += h.Weight * r
		}
	}
	return out, nil
}
