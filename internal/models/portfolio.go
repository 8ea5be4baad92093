package models

import (
	"math"
	"sort"
)

// WeightSumTolerance is the permitted deviation of the weight sum from 1.0.
const WeightSumTolerance = 1e-6

// Holding pairs an asset identifier with its portfolio weight.
type Holding struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// Portfolio is a set of holdings. Weights must sum to 1.0 within
// WeightSumTolerance; long-only unless AllowShort is set.
type Portfolio struct {
	Holdings   []Holding `json:"holdings"`
	AllowShort bool      `json:"allow_short,omitempty"`
}

// NewEqualWeightPortfolio builds a portfolio with identical weights across
// the given tickers.
func NewEqualWeightPortfolio(tickers []string) *Portfolio {
	p := &Portfolio{Holdings: make([]Holding, len(tickers))}
	w := 1.0 / float64(len(tickers))
	for i, t := range tickers {
		p.Holdings[i] = Holding{Ticker: t, Weight: w}
	}
	return p
}

// Validate enforces the portfolio invariants.
func (p *Portfolio) Validate() error {
	if len(p.Holdings) == 0 {
		return &InvalidInputError{Index: -1, Reason: "portfolio has no holdings"}
	}
	sum := 0.0
	seen := make(map[string]bool, len(p.Holdings))
	for _, h := range p.Holdings {
		if h.Ticker == "" {
			return &InvalidInputError{Index: -1, Reason: "holding with empty ticker"}
		}
		if seen[h.Ticker] {
			return &InvalidInputError{Ticker: h.Ticker, Index: -1, Reason: "duplicate holding"}
		}
		seen[h.Ticker] = true
		if math.IsNaN(h.Weight) || math.IsInf(h.Weight, 0) {
			return &InvalidInputError{Ticker: h.Ticker, Index: -1, Reason: "non-finite weight"}
		}
		if !p.AllowShort && h.Weight < 0 {
			return &InvalidInputError{Ticker: h.Ticker, Index: -1, Reason: "negative weight in long-only portfolio"}
		}
		sum += h.Weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return &InvalidInputError{Index: -1, Reason: "weights do not sum to 1.0"}
	}
	return nil
}

// WeightVector returns the weights ordered by the given ticker order.
// Tickers without a holding get weight zero.
func (p *Portfolio) WeightVector(tickers []string) []float64 {
	byTicker := make(map[string]float64, len(p.Holdings))
	for _, h := range p.Holdings {
		byTicker[h.Ticker] = h.Weight
	}
	w := make([]float64, len(tickers))
	for i, t := range tickers {
		w[i] = byTicker[t]
	}
	return w
}

// Tickers returns the holding tickers in sorted order.
func (p *Portfolio) Tickers() []string {
	out := make([]string, len(p.Holdings))
	for i, h := range p.Holdings {
		out[i] = h.Ticker
	}
	sort.Strings(out)
	return out
}
