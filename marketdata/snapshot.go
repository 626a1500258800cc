// Package marketdata holds the yield snapshot and yield history value types
// consumed by calibration and the risk engines, plus the loaders that
// produce them from CSV files or Postgres.
package marketdata

import (
	"fmt"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// CanonicalTenors is the fixed tenor column universe of the toolkit.
var CanonicalTenors = []string{"3M", "6M", "1Y", "2Y", "3Y", "5Y", "7Y", "10Y"}

// Snapshot maps normalized tenor labels to decimal yields for one calendar
// date. Snapshots are treated as immutable values: perturbation helpers
// always return a fresh copy and never touch the receiver.
type Snapshot map[string]float64

// NewSnapshot builds a Snapshot from raw tenor keys, normalizing each one.
func NewSnapshot(yields map[string]float64) (Snapshot, error) {
	out := make(Snapshot, len(yields))
	for tenor, y := range yields {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("NewSnapshot: %w", err)
		}
		out[norm] = y
	}
	return out, nil
}

// Clone returns a copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for tenor, y := range s {
		out[tenor] = y
	}
	return out
}

// Bump returns a copy of the snapshot with a single tenor shifted by delta
// (decimal). The tenor must already be present.
func (s Snapshot) Bump(tenor string, delta float64) (Snapshot, error) {
	norm, err := utils.NormalizeTenor(tenor)
	if err != nil {
		return nil, fmt.Errorf("Snapshot.Bump: %w", err)
	}
	if _, ok := s[norm]; !ok {
		return nil, fmt.Errorf("Snapshot.Bump: tenor %s not present in snapshot", norm)
	}
	out := s.Clone()
	out[norm] += delta
	return out, nil
}

// Shift returns a copy of the snapshot with each listed tenor moved by the
// matching delta (decimal). tenors and deltas must be the same length and
// every tenor must be present.
func (s Snapshot) Shift(tenors []string, deltas []float64) (Snapshot, error) {
	if len(tenors) != len(deltas) {
		return nil, fmt.Errorf("Snapshot.Shift: tenors and deltas must have the same length (%d vs %d)",
			len(tenors), len(deltas))
	}
	out := s.Clone()
	for i, tenor := range tenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("Snapshot.Shift: %w", err)
		}
		if _, ok := out[norm]; !ok {
			return nil, fmt.Errorf("Snapshot.Shift: tenor %s not present in snapshot", norm)
		}
		out[norm] += deltas[i]
	}
	return out, nil
}

// Yields returns the snapshot values for the given tenors, in order.
// Missing tenors are an error.
func (s Snapshot) Yields(tenors []string) ([]float64, error) {
	out := make([]float64, len(tenors))
	for i, tenor := range tenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("Snapshot.Yields: %w", err)
		}
		y, ok := s[norm]
		if !ok {
			return nil, fmt.Errorf("Snapshot.Yields: tenor %s not present in snapshot", norm)
		}
		out[i] = y
	}
	return out, nil
}

// MissingTenors returns the requested tenors absent from the snapshot, in
// input order.
func (s Snapshot) MissingTenors(tenors []string) ([]string, error) {
	var missing []string
	for _, tenor := range tenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("Snapshot.MissingTenors: %w", err)
		}
		if _, ok := s[norm]; !ok {
			missing = append(missing, norm)
		}
	}
	return missing, nil
}
