package risk

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// CalibrateAt fits a curve to the history's snapshot on the given date.
// A nil tenor slice selects the canonical set; the requested tenors must
// all be present in the history.
func CalibrateAt(hist *marketdata.History, date time.Time, tenors []string, opts *curve.CalibrationOptions) (*curve.Curve, curve.FitStats, error) {
	if hist == nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: nil yield history")
	}
	if tenors == nil {
		tenors = marketdata.CanonicalTenors
	}
	sorted, err := utils.SortTenors(tenors)
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: %w", err)
	}
	missing, err := hist.MissingTenors(sorted)
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: %w", err)
	}
	if len(missing) > 0 {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: tenors missing from history: %v", missing)
	}

	snap, err := hist.SnapshotAt(date)
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: %w", err)
	}
	obs, err := snap.Yields(sorted)
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: %w", err)
	}
	params, stats, err := curve.Calibrate(sorted, obs, opts)
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: %w", err)
	}
	c, err := curve.New(params)
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateAt: %w", err)
	}
	return c, stats, nil
}

// CalibrateLatest fits a curve to the most recent snapshot in the history.
func CalibrateLatest(hist *marketdata.History, tenors []string, opts *curve.CalibrationOptions) (*curve.Curve, curve.FitStats, error) {
	if hist == nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateLatest: nil yield history")
	}
	date, err := hist.LatestDate()
	if err != nil {
		return nil, curve.FitStats{}, fmt.Errorf("CalibrateLatest: %w", err)
	}
	return CalibrateAt(hist, date, tenors, opts)
}
