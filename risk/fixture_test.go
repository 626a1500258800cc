package risk_test

import (
	"testing"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/bond"
	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
)

// Fixtures generate observed yields from an NSS model so calibration can
// reproduce them tightly and price noise stays well below shock effects.

var fixtureParams = curve.Params{
	Beta0: 0.045, Beta1: 0.008, Beta2: -0.01, Beta3: 0.002,
	Tau1: 1.5, Tau2: 6.0,
}

var fixtureMaturities = map[string]float64{
	"3M": 0.25, "6M": 0.5, "1Y": 1, "2Y": 2,
	"3Y": 3, "5Y": 5, "7Y": 7, "10Y": 10,
}

func fixtureSettlement() time.Time {
	return time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
}

func fixtureBond() bond.FixedCouponBond {
	return bond.FixedCouponBond{
		MaturityDate: time.Date(2030, time.January, 2, 0, 0, 0, 0, time.UTC),
		CouponRate:   0.045,
		Notional:     100,
		Frequency:    2,
	}
}

func fixtureSnapshot(t *testing.T) marketdata.Snapshot {
	t.Helper()
	yields := make(map[string]float64, len(fixtureMaturities))
	for tenor, years := range fixtureMaturities {
		y, err := curve.Yield(years, fixtureParams)
		if err != nil {
			t.Fatalf("fixture yield %s: %v", tenor, err)
		}
		yields[tenor] = y
	}
	snap, err := marketdata.NewSnapshot(yields)
	if err != nil {
		t.Fatalf("fixture snapshot: %v", err)
	}
	return snap
}

// fixtureHistory builds days rows ending 2024-12-31 by wiggling the model
// snapshot with a small deterministic pattern (a few basis points).
func fixtureHistory(t *testing.T, days int) *marketdata.History {
	t.Helper()
	base := fixtureSnapshot(t)
	tenors := marketdata.CanonicalTenors

	end := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, days)
	values := make([][]float64, days)
	for i := 0; i < days; i++ {
		dates[i] = end.AddDate(0, 0, i-days+1)
		row := make([]float64, len(tenors))
		for j, tenor := range tenors {
			wiggle := float64((i*7+j*3)%5-2) * 2e-4
			row[j] = base[tenor] + wiggle
		}
		values[i] = row
	}
	h, err := marketdata.NewHistory(dates, tenors, values)
	if err != nil {
		t.Fatalf("fixture history: %v", err)
	}
	return h
}
