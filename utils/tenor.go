package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var tenorRe = regexp.MustCompile(`^\s*(\d+)\s*([MmYy])\s*$`)

// NormalizeTenor converts a tenor string to canonical form: "3m" -> "3M",
// " 10Y " -> "10Y". Only integer month/year tenors are accepted.
func NormalizeTenor(tenor string) (string, error) {
	m := tenorRe.FindStringSubmatch(tenor)
	if m == nil {
		return "", fmt.Errorf("NormalizeTenor: invalid tenor %q (expected like \"3M\" or \"1Y\")", tenor)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("NormalizeTenor: invalid tenor %q: %w", tenor, err)
	}
	return fmt.Sprintf("%d%s", n, strings.ToUpper(m[2])), nil
}

// TenorToYears converts a tenor string to a year fraction: months map to
// n/12, years to n.
func TenorToYears(tenor string) (float64, error) {
	t, err := NormalizeTenor(tenor)
	if err != nil {
		return 0, err
	}
	n, _ := strconv.Atoi(t[:len(t)-1])
	switch t[len(t)-1] {
	case 'M':
		return float64(n) / 12.0, nil
	case 'Y':
		return float64(n), nil
	}
	// Unreachable: NormalizeTenor only emits M or Y suffixes.
	return 0, fmt.Errorf("TenorToYears: unsupported unit in %q", tenor)
}

// SortTenors normalizes tenor strings and returns them sorted ascending by
// implied maturity.
func SortTenors(tenors []string) ([]string, error) {
	type entry struct {
		tenor string
		years float64
	}
	entries := make([]entry, len(tenors))
	for i, t := range tenors {
		norm, err := NormalizeTenor(t)
		if err != nil {
			return nil, fmt.Errorf("SortTenors: %w", err)
		}
		y, err := TenorToYears(norm)
		if err != nil {
			return nil, fmt.Errorf("SortTenors: %w", err)
		}
		entries[i] = entry{tenor: norm, years: y}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].years < entries[j].years
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.tenor
	}
	return out, nil
}
