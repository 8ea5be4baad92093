// Package models defines the core domain types for Riskcore: assets,
// portfolios, return series, covariance structures, and report payloads.
package models

import (
	"math"
	"time"
)

// PriceBar is one observation of an asset's price history.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // traded dollar volume
}

// Asset is a security with its price history in ascending date order.
type Asset struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

// Validate enforces the asset invariants: a non-empty ticker, strictly
// increasing dates, finite positive closes, and finite non-negative
// volumes.
func (a *Asset) Validate() error {
	if a.Ticker == "" {
		return &InvalidInputError{Index: -1, Reason: "empty ticker"}
	}
	for i, bar := range a.Bars {
		if i > 0 && !bar.Date.After(a.Bars[i-1].Date) {
			return &InvalidInputError{Ticker: a.Ticker, Index: i, Reason: "dates not strictly increasing"}
		}
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) || bar.Close <= 0 {
			return &InvalidInputError{Ticker: a.Ticker, Index: i, Reason: "close must be finite and positive"}
		}
		if math.IsNaN(bar.Volume) || math.IsInf(bar.Volume, 0) || bar.Volume < 0 {
			return &InvalidInputError{Ticker: a.Ticker, Index: i, Reason: "volume must be finite and non-negative"}
		}
	}
	return nil
}
