package risk

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// HistoricalVaRConfig tunes the historical simulation engine. The zero
// value (or a nil pointer) uses the latest history date as base, the
// canonical tenor set, a 252-day lookback and 95%/99% confidence levels.
type HistoricalVaRConfig struct {
	// BaseDate selects the snapshot the shocks are applied to. The zero
	// time means the latest date in the history.
	BaseDate time.Time
	Tenors   []string
	// LookbackDays is the window length in trading days (default 252).
	LookbackDays     int
	ConfidenceLevels []float64
	Calibration      *curve.CalibrationOptions
}

// HistoricalVaRResult holds the full-revaluation P&L distribution from
// replayed historical daily changes and the loss quantiles derived from it.
type HistoricalVaRResult struct {
	BasePrice    float64
	BaseFit      curve.FitStats
	BaseDate     time.Time
	Settlement   time.Time
	Tenors       []string
	LookbackDays int
	PnL          []float64
	// VaRByLevel maps confidence level to a non-negative loss magnitude.
	VaRByLevel map[float64]float64
	// NonConverged counts shocked fits whose solver did not converge.
	// Those P&Ls remain in the distribution; the count flags them.
	NonConverged int
}

// HistoricalVaR computes value-at-risk by historical simulation with full
// revaluation: each day-over-day change vector in the lookback window is
// applied additively to the base snapshot, the curve is refit and the
// instrument repriced. Fewer than 2 usable rows, or any requested tenor
// absent from the history, is an error raised before any fitting.
func HistoricalVaR(inst Instrument, hist *marketdata.History, settlement time.Time, cfg *HistoricalVaRConfig) (*HistoricalVaRResult, error) {
	conf := HistoricalVaRConfig{}
	if cfg != nil {
		conf = *cfg
	}
	if conf.LookbackDays == 0 {
		conf.LookbackDays = DefaultLookbackDays
	}
	if conf.ConfidenceLevels == nil {
		conf.ConfidenceLevels = DefaultConfidenceLevels
	}

	tenors, baseDate, window, baseSnap, err := resolveVaRInputs(hist, conf.Tenors, conf.BaseDate, conf.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("HistoricalVaR: %w", err)
	}

	basePrice, baseFit, err := FitSnapshot(inst, baseSnap, tenors, settlement, conf.Calibration)
	if err != nil {
		return nil, fmt.Errorf("HistoricalVaR: %w", err)
	}

	changes, err := window.Diffs(tenors)
	if err != nil {
		return nil, fmt.Errorf("HistoricalVaR: %w", err)
	}

	pnl := make([]float64, 0, len(changes))
	nonConverged := 0
	for _, delta := range changes {
		shocked, err := baseSnap.Shift(tenors, delta)
		if err != nil {
			return nil, fmt.Errorf("HistoricalVaR: %w", err)
		}
		price, fit, err := FitSnapshot(inst, shocked, tenors, settlement, conf.Calibration)
		if err != nil {
			return nil, fmt.Errorf("HistoricalVaR: %w", err)
		}
		if !fit.Success {
			nonConverged++
		}
		pnl = append(pnl, price-basePrice)
	}

	varByLevel, err := varFromPnL(pnl, conf.ConfidenceLevels)
	if err != nil {
		return nil, fmt.Errorf("HistoricalVaR: %w", err)
	}

	return &HistoricalVaRResult{
		BasePrice:    basePrice,
		BaseFit:      baseFit,
		BaseDate:     baseDate,
		Settlement:   settlement,
		Tenors:       tenors,
		LookbackDays: window.Len() - 1,
		PnL:          pnl,
		VaRByLevel:   varByLevel,
		NonConverged: nonConverged,
	}, nil
}

// resolveVaRInputs validates the tenor set against the history, resolves
// the base date (latest when zero), slices the lookback window and builds
// the base snapshot. Shared by both VaR engines.
func resolveVaRInputs(hist *marketdata.History, tenors []string, baseDate time.Time, lookbackDays int) ([]string, time.Time, *marketdata.History, marketdata.Snapshot, error) {
	if hist == nil {
		return nil, time.Time{}, nil, nil, fmt.Errorf("nil yield history")
	}

	if tenors == nil {
		tenors = marketdata.CanonicalTenors
	}
	sorted, err := utils.SortTenors(tenors)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}
	missing, err := hist.MissingTenors(sorted)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}
	if len(missing) > 0 {
		return nil, time.Time{}, nil, nil, fmt.Errorf("tenors missing from history: %v", missing)
	}

	if baseDate.IsZero() {
		baseDate, err = hist.LatestDate()
		if err != nil {
			return nil, time.Time{}, nil, nil, err
		}
	}

	window, err := hist.Window(baseDate, lookbackDays)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}
	if window.Len() < 2 {
		return nil, time.Time{}, nil, nil, fmt.Errorf("not enough history for the chosen lookback window (%d rows)", window.Len())
	}

	baseSnap, err := window.SnapshotAt(baseDate)
	if err != nil {
		return nil, time.Time{}, nil, nil, err
	}

	return sorted, baseDate, window, baseSnap, nil
}
