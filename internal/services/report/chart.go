// Package report renders analysis results into static chart artifacts.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/riskcore/internal/models"
)

// RenderFrontierChart renders a PNG scatter of the efficient frontier:
// volatility on X, expected return on Y. Returns raw PNG bytes.
func RenderFrontierChart(frontier *models.Frontier) ([]byte, error) {
	if frontier == nil || len(frontier.Points) < 2 {
		n := 0
		if frontier != nil {
			n = len(frontier.Points)
		}
		return nil, fmt.Errorf("need at least 2 frontier points, got %d", n)
	}

	xValues := make([]float64, len(frontier.Points))
	yValues := make([]float64, len(frontier.Points))
	for i, p := range frontier.Points {
		xValues[i] = p.Volatility
		yValues[i] = p.ExpectedReturn
	}

	frontierSeries := chart.ContinuousSeries{
		Name: "Efficient Frontier",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
			DotColor:    drawing.ColorFromHex("2563eb"),
			DotWidth:    3.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Efficient Frontier",
		Width:  900,
		Height: 500,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name: "Annualized Volatility",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f*100)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name: "Expected Return",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f*100)
				}
				return ""
			},
		},
		Series: []chart.Series{frontierSeries},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDrawdownChart renders the compounded wealth curve with the max
// drawdown span highlighted. Returns raw PNG bytes.
func RenderDrawdownChart(drawdown *models.DrawdownReport, dates []time.Time) ([]byte, error) {
	if drawdown == nil || len(drawdown.Curve) < 2 {
		return nil, fmt.Errorf("need at least 2 curve points")
	}
	if len(dates) != len(drawdown.Curve) {
		return nil, fmt.Errorf("date axis length %d does not match curve length %d", len(dates), len(drawdown.Curve))
	}

	wealthSeries := chart.TimeSeries{
		Name: "Portfolio Wealth",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.0,
		},
		XValues: dates,
		YValues: drawdown.Curve,
	}

	series := []chart.Series{wealthSeries}
	if drawdown.TroughIndex > drawdown.PeakIndex {
		series = append(series, chart.TimeSeries{
			Name: "Max Drawdown",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("dc2626"), // red-600
				StrokeWidth:     2.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: dates[drawdown.PeakIndex : drawdown.TroughIndex+1],
			YValues: drawdown.Curve[drawdown.PeakIndex : drawdown.TroughIndex+1],
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Drawdown (max %.1f%%)", drawdown.MaxDrawdown*100),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
