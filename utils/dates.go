package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// ParseDate converts YYYY-MM-DD to time.Time.
func ParseDate(s string) (time.Time, error) {
	const layout = "2006-01-02"
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// dateLayouts are tried in order by ParseDateAny. ISO first, then
// month-first and day-first slash formats with 4- and 2-digit years.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"02/01/2006",
	"02/01/06",
}

// ParseDateAny parses a date string trying several common layouts.
//
// Ambiguous slash dates (e.g. 03/04/2021) resolve month-first because that
// layout is tried earlier. Raw files carrying day-first dates should use
// unambiguous day values or pre-convert to ISO.
func ParseDateAny(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ParseDateAny: unparseable date %q", s)
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises.
func AddMonth(t time.Time, months int) time.Time {
	target := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if target.Month() == t.AddDate(0, months, 0).Month() {
		return t.AddDate(0, months, 0)
	}

	d := t.AddDate(0, months, 0)
	origMonth := int(d.Month())
	for int(d.Month()) == origMonth {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// YearFractionACT365 computes the ACT/365 year fraction between two dates.
func YearFractionACT365(start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	return days / 365.0
}
