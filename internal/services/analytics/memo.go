package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/riskcore/internal/interfaces"
	"github.com/bobmcallan/riskcore/internal/models"
)

// MemoizedService caches analysis reports keyed by a content hash of the
// request. The cache is in-memory only and singleflight guarantees at
// most one computation in flight per key.
type MemoizedService struct {
	inner interfaces.AnalyticsService
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*models.AnalysisReport
}

// NewMemoizedService wraps an analytics service with content-hash
// memoization.
func NewMemoizedService(inner interfaces.AnalyticsService) *MemoizedService {
	return &MemoizedService{
		inner: inner,
		cache: make(map[string]*models.AnalysisReport),
	}
}

// Analyze returns a cached report for a previously seen request, or runs
// the wrapped service exactly once per distinct request under concurrency.
func (m *MemoizedService) Analyze(ctx context.Context, req interfaces.AnalysisRequest) (*models.AnalysisReport, error) {
	key := requestKey(req)

	m.mu.RLock()
	cached, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		cached, ok := m.cache[key]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		report, err := m.inner.Analyze(ctx, req)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[key] = report
		m.mu.Unlock()
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.AnalysisReport), nil
}

// requestKey canonicalizes the request into a sha256 hex digest. Map
// iteration order never leaks into the key: all map-backed inputs are
// written in sorted key order.
func requestKey(req interfaces.AnalysisRequest) string {
	h := sha256.New()

	for _, a := range req.Assets {
		fmt.Fprintf(h, "asset:%s;", a.Ticker)
		for _, bar := range a.Bars {
			fmt.Fprintf(h, "%d:%g:%g;", bar.Date.UnixNano(), bar.Close, bar.Volume)
		}
	}
	if req.Portfolio != nil {
		fmt.Fprintf(h, "portfolio:short=%t;", req.Portfolio.AllowShort)
		for _, hold := range req.Portfolio.Holdings {
			fmt.Fprintf(h, "%s=%g;", hold.Ticker, hold.Weight)
		}
	}
	fmt.Fprintf(h, "risk:%g:%d:%g:%d:%d:%g;",
		req.Risk.Confidence, req.Risk.HorizonDays, req.Risk.AnnualizationFactor,
		req.Risk.MonteCarloPaths, req.Risk.MonteCarloSeed, req.Risk.RiskFreeRate)
	fmt.Fprintf(h, "method:%s;points:%d;iters:%d;windows:%d:%d:%d;z:%g;",
		req.ReturnMethod, req.FrontierPoints, req.MaxIterations,
		req.VolatilityWindow, req.LiquidityWindow, req.AnomalyWindow, req.AnomalyZThreshold)

	fmt.Fprintf(h, "cons:short=%t:cap=%g;", req.Constraints.AllowShort, req.Constraints.MaxWeight)
	writeSortedStringMap(h, "sectorof", req.Constraints.SectorOf)
	writeSortedFloatMap(h, "sectorlimits", req.Constraints.SectorLimits)

	factorNames := make([]string, 0, len(req.FactorReturns))
	for name := range req.FactorReturns {
		factorNames = append(factorNames, name)
	}
	sort.Strings(factorNames)
	for _, name := range factorNames {
		fmt.Fprintf(h, "factor:%s;", name)
		for _, v := range req.FactorReturns[name] {
			fmt.Fprintf(h, "%g;", v)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeSortedStringMap(w io.Writer, label string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s:%s=%s;", label, k, m[k])
	}
}

func writeSortedFloatMap(w io.Writer, label string, m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s:%s=%g;", label, k, m[k])
	}
}
