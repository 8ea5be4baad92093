package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       *Portfolio
		wantErr string
	}{
		{
			name: "valid long-only",
			p: &Portfolio{Holdings: []Holding{
				{Ticker: "AAA", Weight: 0.6},
				{Ticker: "BBB", Weight: 0.4},
			}},
		},
		{
			name:    "empty",
			p:       &Portfolio{},
			wantErr: "no holdings",
		},
		{
			name: "weights off budget",
			p: &Portfolio{Holdings: []Holding{
				{Ticker: "AAA", Weight: 0.6},
				{Ticker: "BBB", Weight: 0.3},
			}},
			wantErr: "sum to 1.0",
		},
		{
			name: "short without permission",
			p: &Portfolio{Holdings: []Holding{
				{Ticker: "AAA", Weight: 1.2},
				{Ticker: "BBB", Weight: -0.2},
			}},
			wantErr: "negative weight",
		},
		{
			name: "short allowed",
			p: &Portfolio{
				Holdings: []Holding{
					{Ticker: "AAA", Weight: 1.2},
					{Ticker: "BBB", Weight: -0.2},
				},
				AllowShort: true,
			},
		},
		{
			name: "duplicate ticker",
			p: &Portfolio{Holdings: []Holding{
				{Ticker: "AAA", Weight: 0.5},
				{Ticker: "AAA", Weight: 0.5},
			}},
			wantErr: "duplicate",
		},
		{
			name: "non-finite weight",
			p: &Portfolio{Holdings: []Holding{
				{Ticker: "AAA", Weight: math.NaN()},
				{Ticker: "BBB", Weight: 1.0},
			}},
			wantErr: "non-finite",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewEqualWeightPortfolio(t *testing.T) {
	p := NewEqualWeightPortfolio([]string{"AAA", "BBB", "CCC"})
	require.NoError(t, p.Validate())
	for _, h := range p.Holdings {
		assert.InDelta(t, 1.0/3.0, h.Weight, 1e-12)
	}
}

func TestWeightVector(t *testing.T) {
	p := &Portfolio{Holdings: []Holding{
		{Ticker: "BBB", Weight: 0.7},
		{Ticker: "AAA", Weight: 0.3},
	}}
	w := p.WeightVector([]string{"AAA", "BBB", "CCC"})
	assert.Equal(t, []float64{0.3, 0.7, 0}, w)
}

func TestAssetValidate(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, 101)}
		assert.NoError(t, a.Validate())
	})

	t.Run("dates must increase", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: []PriceBar{
			{Date: base, Close: 100, Volume: 1},
			{Date: base, Close: 101, Volume: 1},
		}}
		var invalid *InvalidInputError
		require.ErrorAs(t, a.Validate(), &invalid)
		assert.Equal(t, 1, invalid.Index)
	})

	t.Run("non-positive close", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, 0)}
		require.Error(t, a.Validate())
	})

	t.Run("negative volume", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: []PriceBar{{Date: base, Close: 100, Volume: -1}}}
		require.Error(t, a.Validate())
	})

	t.Run("empty ticker", func(t *testing.T) {
		a := &Asset{Bars: barsFrom(base, 100, 101)}
		require.Error(t, a.Validate())
	})
}
