// Package risk derives curve-sensitivity and tail-risk measures by full
// revaluation: perturb observed yields, refit the curve, reprice.
package risk

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// Instrument is the single capability the risk engines require. Single
// bonds, portfolios, or any future instrument type are interchangeable as
// long as they can price themselves off a curve.
type Instrument interface {
	Price(c *curve.Curve, settlement time.Time) (float64, error)
}

// FitSnapshot calibrates a curve to the snapshot values at the given
// tenors and prices the instrument on it. The fit diagnostics are returned
// so callers can inspect convergence before trusting the price.
func FitSnapshot(inst Instrument, snap marketdata.Snapshot, tenors []string, settlement time.Time, opts *curve.CalibrationOptions) (float64, curve.FitStats, error) {
	obs, err := snap.Yields(tenors)
	if err != nil {
		return 0, curve.FitStats{}, fmt.Errorf("FitSnapshot: %w", err)
	}
	params, stats, err := curve.Calibrate(tenors, obs, opts)
	if err != nil {
		return 0, curve.FitStats{}, fmt.Errorf("FitSnapshot: %w", err)
	}
	c, err := curve.New(params)
	if err != nil {
		return 0, curve.FitStats{}, fmt.Errorf("FitSnapshot: %w", err)
	}
	price, err := inst.Price(c, settlement)
	if err != nil {
		return 0, curve.FitStats{}, fmt.Errorf("FitSnapshot: %w", err)
	}
	return price, stats, nil
}

// resolveTenors normalizes and sorts the requested tenor set, defaulting
// to the canonical universe, and validates that every tenor is present in
// the snapshot before any fitting occurs.
func resolveTenors(tenors []string, snap marketdata.Snapshot) ([]string, error) {
	if tenors == nil {
		tenors = marketdata.CanonicalTenors
	}
	sorted, err := utils.SortTenors(tenors)
	if err != nil {
		return nil, err
	}
	missing, err := snap.MissingTenors(sorted)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("risk: tenors missing from snapshot: %v", missing)
	}
	return sorted, nil
}
