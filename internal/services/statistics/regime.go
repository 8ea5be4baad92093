package statistics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/riskcore/internal/models"
)

// RegimeThresholds splits realized volatility into low/normal/high buckets.
type RegimeThresholds struct {
	Low  float64 // below -> low, at or above -> normal
	High float64 // at or above -> high
}

// DefaultRegimeThresholds derives thresholds from the trailing distribution
// of the volatility series itself: the 33rd and 67th percentiles.
func DefaultRegimeThresholds(volatility []float64) RegimeThresholds {
	sorted := make([]float64, len(volatility))
	copy(sorted, volatility)
	sort.Float64s(sorted)
	return RegimeThresholds{
		Low:  stat.Quantile(0.33, stat.LinInterp, sorted, nil),
		High: stat.Quantile(0.67, stat.LinInterp, sorted, nil),
	}
}

// ClassifyRegime labels each volatility observation low/normal/high against
// the supplied thresholds, or trailing-percentile thresholds when
// thresholds is nil. Boundary values round to the higher-volatility bucket.
func (e *Engine) ClassifyRegime(volatility []float64, thresholds *RegimeThresholds) ([]models.RegimeLabel, error) {
	if len(volatility) == 0 {
		return nil, &models.InsufficientDataError{Required: 1, Actual: 0, What: "regime classification"}
	}
	for i, v := range volatility {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, &models.InvalidInputError{Index: i, Reason: "invalid volatility value"}
		}
	}

	thr := RegimeThresholds{}
	if thresholds != nil {
		thr = *thresholds
	} else {
		thr = DefaultRegimeThresholds(volatility)
	}
	if thr.Low > thr.High {
		return nil, &models.InvalidInputError{Index: -1, Reason: "regime low threshold exceeds high threshold"}
	}

	labels := make([]models.RegimeLabel, len(volatility))
	for i, v := range volatility {
		switch {
		case v >= thr.High:
			labels[i] = models.RegimeHigh
		case v >= thr.Low:
			labels[i] = models.RegimeNormal
		default:
			labels[i] = models.RegimeLow
		}
	}
	return labels, nil
}

// RegimeReport runs the rolling volatility and classification together as
// one serializable result.
func (e *Engine) RegimeReport(returns []float64, window int, thresholds *RegimeThresholds) (*models.RegimeReport, error) {
	it, err := e.RollingVolatility(returns, window)
	if err != nil {
		return nil, err
	}
	vol := it.Collect()

	thr := RegimeThresholds{}
	if thresholds != nil {
		thr = *thresholds
	} else {
		thr = DefaultRegimeThresholds(vol)
	}

	labels, err := e.ClassifyRegime(vol, &thr)
	if err != nil {
		return nil, err
	}

	return &models.RegimeReport{
		Window:        window,
		Volatility:    vol,
		Labels:        labels,
		LowThreshold:  thr.Low,
		HighThreshold: thr.High,
	}, nil
}
