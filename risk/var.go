package risk

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultConfidenceLevels are used when a VaR config leaves the levels nil.
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// DefaultLookbackDays is the default VaR lookback window in trading days.
const DefaultLookbackDays = 252

// varFromPnL derives loss magnitudes from a P&L distribution: VaR at
// confidence c is max(0, -quantile(pnl, 1-c)), with linear interpolation
// between order statistics.
func varFromPnL(pnl []float64, levels []float64) (map[float64]float64, error) {
	if len(pnl) == 0 {
		return nil, fmt.Errorf("varFromPnL: empty P&L distribution")
	}
	sorted := make([]float64, len(pnl))
	copy(sorted, pnl)
	sort.Float64s(sorted)

	out := make(map[float64]float64, len(levels))
	for _, c := range levels {
		if c <= 0 || c >= 1 {
			return nil, fmt.Errorf("varFromPnL: confidence level must be in (0,1), got %v", c)
		}
		q := stat.Quantile(1.0-c, stat.LinInterp, sorted, nil)
		loss := -q
		if loss < 0 {
			loss = 0
		}
		out[c] = loss
	}
	return out, nil
}
