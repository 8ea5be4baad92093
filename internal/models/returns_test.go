package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFrom(start time.Time, closes ...float64) []PriceBar {
	bars := make([]PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = PriceBar{Date: start.AddDate(0, 0, i), Close: c, Volume: 1e6}
	}
	return bars
}

func TestNewReturnSeries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("simple returns", func(t *testing.T) {
		assets := []*Asset{
			{Ticker: "AAA", Bars: barsFrom(base, 100, 110, 99)},
		}
		rs, err := NewReturnSeries(assets, ReturnSimple)
		require.NoError(t, err)
		require.Equal(t, 2, rs.Length())
		assert.InDelta(t, 0.10, rs.Returns["AAA"][0], 1e-12)
		assert.InDelta(t, -0.10, rs.Returns["AAA"][1], 1e-12)
	})

	t.Run("log returns", func(t *testing.T) {
		assets := []*Asset{
			{Ticker: "AAA", Bars: barsFrom(base, 100, 110, 121)},
		}
		rs, err := NewReturnSeries(assets, ReturnLog)
		require.NoError(t, err)
		assert.InDelta(t, math.Log(1.1), rs.Returns["AAA"][0], 1e-12)
		assert.InDelta(t, math.Log(1.1), rs.Returns["AAA"][1], 1e-12)
	})

	t.Run("inner join drops unshared dates", func(t *testing.T) {
		// BBB is missing the second date, so only three dates are shared.
		aaa := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, 101, 102, 103)}
		bbb := &Asset{Ticker: "BBB", Bars: []PriceBar{
			{Date: base, Close: 50, Volume: 1e6},
			{Date: base.AddDate(0, 0, 2), Close: 52, Volume: 1e6},
			{Date: base.AddDate(0, 0, 3), Close: 51, Volume: 1e6},
		}}
		rs, err := NewReturnSeries([]*Asset{aaa, bbb}, ReturnSimple)
		require.NoError(t, err)
		require.Equal(t, 2, rs.Length())
		assert.Equal(t, []string{"AAA", "BBB"}, rs.Tickers)
		// AAA's first aligned return spans the dropped date: 102/100 - 1.
		assert.InDelta(t, 0.02, rs.Returns["AAA"][0], 1e-12)
		assert.InDelta(t, 0.04, rs.Returns["BBB"][0], 1e-12)
		assert.Equal(t, base.AddDate(0, 0, 2), rs.Dates[0])
	})

	t.Run("too few shared dates", func(t *testing.T) {
		aaa := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, 101, 102)}
		bbb := &Asset{Ticker: "BBB", Bars: barsFrom(base.AddDate(0, 0, 2), 50, 51, 52)}
		_, err := NewReturnSeries([]*Asset{aaa, bbb}, ReturnSimple)
		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 3, insufficient.Required)
		assert.Equal(t, 1, insufficient.Actual)
	})

	t.Run("duplicate asset", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, 101, 102)}
		_, err := NewReturnSeries([]*Asset{a, a}, ReturnSimple)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "AAA", invalid.Ticker)
	})

	t.Run("unknown method", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, 101, 102)}
		_, err := NewReturnSeries([]*Asset{a}, ReturnMethod("geometric"))
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("invalid bars rejected", func(t *testing.T) {
		a := &Asset{Ticker: "AAA", Bars: barsFrom(base, 100, -5, 102)}
		_, err := NewReturnSeries([]*Asset{a}, ReturnSimple)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 1, invalid.Index)
	})
}

func TestWeightedReturns(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rs, err := NewReturnSeries([]*Asset{
		{Ticker: "AAA", Bars: barsFrom(base, 100, 110, 99)},
		{Ticker: "BBB", Bars: barsFrom(base, 50, 50, 55)},
	}, ReturnSimple)
	require.NoError(t, err)

	p := &Portfolio{Holdings: []Holding{
		{Ticker: "AAA", Weight: 0.6},
		{Ticker: "BBB", Weight: 0.4},
	}}
	out, err := rs.WeightedReturns(p)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.6*0.10, out[0], 1e-12)
	assert.InDelta(t, 0.6*-0.10+0.4*0.10, out[1], 1e-12)

	t.Run("unknown holding", func(t *testing.T) {
		bad := &Portfolio{Holdings: []Holding{{Ticker: "ZZZ", Weight: 1.0}}}
		_, err := rs.WeightedReturns(bad)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "ZZZ", invalid.Ticker)
	})
}
