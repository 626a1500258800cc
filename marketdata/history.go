package marketdata

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// History is an ordered table of yield snapshots: one row per observation
// date, fixed tenor columns. Dates are unique and strictly ascending.
// A History is immutable after construction; windowing returns views over
// the same backing rows.
type History struct {
	dates  []time.Time
	tenors []string
	values [][]float64
}

// NewHistory validates and builds a History. Tenor labels are normalized;
// every row must have one value per tenor column; dates must be strictly
// ascending with no duplicates.
func NewHistory(dates []time.Time, tenors []string, values [][]float64) (*History, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("NewHistory: %d dates but %d rows", len(dates), len(values))
	}
	if len(tenors) == 0 {
		return nil, fmt.Errorf("NewHistory: no tenor columns")
	}

	norm := make([]string, len(tenors))
	for i, tenor := range tenors {
		t, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("NewHistory: %w", err)
		}
		norm[i] = t
	}

	for i, row := range values {
		if len(row) != len(norm) {
			return nil, fmt.Errorf("NewHistory: row %d has %d values, expected %d", i, len(row), len(norm))
		}
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("NewHistory: dates must be strictly ascending (row %d: %s after %s)",
				i, dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}

	return &History{dates: dates, tenors: norm, values: values}, nil
}

// Len returns the number of observation dates.
func (h *History) Len() int {
	return len(h.dates)
}

// Dates returns a copy of the observation dates, ascending.
func (h *History) Dates() []time.Time {
	out := make([]time.Time, len(h.dates))
	copy(out, h.dates)
	return out
}

// Tenors returns a copy of the tenor column labels.
func (h *History) Tenors() []string {
	out := make([]string, len(h.tenors))
	copy(out, h.tenors)
	return out
}

// LatestDate returns the last observation date.
func (h *History) LatestDate() (time.Time, error) {
	if len(h.dates) == 0 {
		return time.Time{}, fmt.Errorf("History.LatestDate: empty history")
	}
	return h.dates[len(h.dates)-1], nil
}

// MissingTenors reports the requested tenors missing from the history columns.
func (h *History) MissingTenors(tenors []string) ([]string, error) {
	cols := make(map[string]bool, len(h.tenors))
	for _, t := range h.tenors {
		cols[t] = true
	}
	var missing []string
	for _, tenor := range tenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("History.MissingTenors: %w", err)
		}
		if !cols[norm] {
			missing = append(missing, norm)
		}
	}
	return missing, nil
}

// SnapshotAt returns the yield snapshot observed on the given date.
func (h *History) SnapshotAt(date time.Time) (Snapshot, error) {
	i, err := h.indexOf(date)
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(h.tenors))
	for j, tenor := range h.tenors {
		snap[tenor] = h.values[i][j]
	}
	return snap, nil
}

// Latest returns the most recent date and its snapshot.
func (h *History) Latest() (time.Time, Snapshot, error) {
	date, err := h.LatestDate()
	if err != nil {
		return time.Time{}, nil, err
	}
	snap, err := h.SnapshotAt(date)
	if err != nil {
		return time.Time{}, nil, err
	}
	return date, snap, nil
}

// Window returns the sub-history ending at end (inclusive), truncated to
// the last lookbackDays+1 rows so that differencing yields lookbackDays
// daily changes. lookbackDays <= 0 keeps every row up to end.
func (h *History) Window(end time.Time, lookbackDays int) (*History, error) {
	i, err := h.indexOf(end)
	if err != nil {
		return nil, err
	}

	start := 0
	if lookbackDays > 0 && i+1 > lookbackDays+1 {
		start = i + 1 - (lookbackDays + 1)
	}

	return &History{
		dates:  h.dates[start : i+1],
		tenors: h.tenors,
		values: h.values[start : i+1],
	}, nil
}

// Diffs returns the day-over-day changes of the selected tenor columns:
// row k holds values[k+1] - values[k]. The history must have at least two
// rows and contain every requested tenor.
func (h *History) Diffs(tenors []string) ([][]float64, error) {
	if len(h.dates) < 2 {
		return nil, fmt.Errorf("History.Diffs: need at least 2 rows, got %d", len(h.dates))
	}

	idx := make([]int, len(tenors))
	for i, tenor := range tenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("History.Diffs: %w", err)
		}
		j := -1
		for k, col := range h.tenors {
			if col == norm {
				j = k
				break
			}
		}
		if j < 0 {
			return nil, fmt.Errorf("History.Diffs: tenor %s not present in history", norm)
		}
		idx[i] = j
	}

	diffs := make([][]float64, len(h.dates)-1)
	for k := 0; k+1 < len(h.dates); k++ {
		row := make([]float64, len(idx))
		for i, j := range idx {
			row[i] = h.values[k+1][j] - h.values[k][j]
		}
		diffs[k] = row
	}
	return diffs, nil
}

func (h *History) indexOf(date time.Time) (int, error) {
	for i := len(h.dates) - 1; i >= 0; i-- {
		if h.dates[i].Equal(date) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("marketdata: date %s not present in history", date.Format("2006-01-02"))
}
