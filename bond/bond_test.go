package bond_test

import (
	"math"
	"testing"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/bond"
	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func flatCurve(t *testing.T, rate float64) *curve.Curve {
	t.Helper()
	// Beta1 = 0 flattens the curve at beta0 across all maturities.
	c, err := curve.New(curve.Params{Beta0: rate, Tau1: 1, Tau2: 3})
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}
	return c
}

func TestCouponSchedule(t *testing.T) {
	t.Parallel()

	settlement := date(2020, time.January, 1)
	maturity := date(2025, time.January, 1)

	schedule, err := bond.CouponSchedule(settlement, maturity, 2)
	if err != nil {
		t.Fatalf("CouponSchedule: %v", err)
	}
	if len(schedule) != 10 {
		t.Fatalf("schedule length = %d, want 10 semiannual dates over 5 years", len(schedule))
	}
	if !schedule[len(schedule)-1].Equal(maturity) {
		t.Errorf("last date = %v, want maturity", schedule[len(schedule)-1])
	}
	for i, d := range schedule {
		if !d.After(settlement) {
			t.Errorf("date %d (%v) not strictly after settlement", i, d)
		}
		if i > 0 && !schedule[i-1].Before(d) {
			t.Errorf("schedule not ascending at %d", i)
		}
	}
}

func TestCouponScheduleShortFirstPeriod(t *testing.T) {
	t.Parallel()

	// Settling mid-period keeps the upcoming coupon but drops past ones.
	settlement := date(2024, time.March, 1)
	maturity := date(2025, time.January, 15)

	schedule, err := bond.CouponSchedule(settlement, maturity, 2)
	if err != nil {
		t.Fatalf("CouponSchedule: %v", err)
	}
	want := []time.Time{date(2024, time.July, 15), date(2025, time.January, 15)}
	if len(schedule) != len(want) {
		t.Fatalf("schedule = %v, want %v", schedule, want)
	}
	for i := range want {
		if !schedule[i].Equal(want[i]) {
			t.Errorf("date %d = %v, want %v", i, schedule[i], want[i])
		}
	}
}

func TestCouponScheduleErrors(t *testing.T) {
	t.Parallel()

	d := date(2024, time.January, 1)
	if _, err := bond.CouponSchedule(d, d, 2); err == nil {
		t.Error("expected error for maturity equal to settlement")
	}
	if _, err := bond.CouponSchedule(d, d.AddDate(-1, 0, 0), 2); err == nil {
		t.Error("expected error for maturity before settlement")
	}
	if _, err := bond.CouponSchedule(d, d.AddDate(1, 0, 0), 5); err == nil {
		t.Error("expected error for frequency that does not divide 12")
	}
	if _, err := bond.CouponSchedule(d, d.AddDate(1, 0, 0), 0); err == nil {
		t.Error("expected error for zero frequency")
	}
}

func TestGenerateCashflows(t *testing.T) {
	t.Parallel()

	settlement := date(2020, time.January, 1)
	maturity := date(2025, time.January, 1)

	cfs, err := bond.GenerateCashflows(settlement, maturity, 0.05, 100, 2)
	if err != nil {
		t.Fatalf("GenerateCashflows: %v", err)
	}
	if len(cfs) != 10 {
		t.Fatalf("cashflow count = %d, want 10", len(cfs))
	}
	for i, cf := range cfs {
		if math.Abs(cf.Coupon-2.5) > 1e-12 {
			t.Errorf("coupon %d = %v, want 2.5", i, cf.Coupon)
		}
	}
	last := cfs[len(cfs)-1]
	if last.Principal != 100 {
		t.Errorf("maturity principal = %v, want 100", last.Principal)
	}
	if math.Abs(last.Amount()-102.5) > 1e-12 {
		t.Errorf("maturity amount = %v, want 102.5", last.Amount())
	}
	for _, cf := range cfs[:len(cfs)-1] {
		if cf.Principal != 0 {
			t.Errorf("intermediate principal = %v, want 0", cf.Principal)
		}
	}
}

func TestPriceOnFlatCurve(t *testing.T) {
	t.Parallel()

	settlement := date(2024, time.January, 2)
	b := bond.FixedCouponBond{
		MaturityDate: date(2030, time.January, 2),
		CouponRate:   0.045,
		Notional:     100,
		Frequency:    2,
	}

	rate := 0.03
	c := flatCurve(t, rate)
	price, err := b.Price(c, settlement)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	// Reprice by hand against the same flat continuous rate.
	cfs, err := b.Cashflows(settlement)
	if err != nil {
		t.Fatalf("Cashflows: %v", err)
	}
	want := 0.0
	for _, cf := range cfs {
		yrs := utils.YearFractionACT365(settlement, cf.Date)
		want += cf.Amount() * math.Exp(-rate*yrs)
	}
	if math.Abs(price-want) > 1e-9 {
		t.Errorf("Price = %v, want %v", price, want)
	}

	// Coupon above the discount rate prices above par.
	if price <= 100 {
		t.Errorf("Price = %v, want premium above par for 4.5%% coupon at 3%% rates", price)
	}
}

func TestPriceDecreasesWithRates(t *testing.T) {
	t.Parallel()

	settlement := date(2024, time.January, 2)
	b := bond.FixedCouponBond{
		MaturityDate: date(2034, time.January, 2),
		CouponRate:   0.04,
		Notional:     100,
		Frequency:    2,
	}

	low, err := b.Price(flatCurve(t, 0.02), settlement)
	if err != nil {
		t.Fatalf("Price at 2%%: %v", err)
	}
	high, err := b.Price(flatCurve(t, 0.05), settlement)
	if err != nil {
		t.Fatalf("Price at 5%%: %v", err)
	}
	if low <= high {
		t.Errorf("price at 2%% (%v) should exceed price at 5%% (%v)", low, high)
	}
}

func TestYieldToMaturityRoundTrip(t *testing.T) {
	t.Parallel()

	settlement := date(2024, time.January, 2)
	b := bond.FixedCouponBond{
		MaturityDate: date(2031, time.July, 2),
		CouponRate:   0.045,
		Notional:     100,
		Frequency:    2,
	}

	rate := 0.038
	price, err := b.Price(flatCurve(t, rate), settlement)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	// On a flat curve the YTM equals the curve rate.
	y, err := b.YieldToMaturity(settlement, price)
	if err != nil {
		t.Fatalf("YieldToMaturity: %v", err)
	}
	if math.Abs(y-rate) > 1e-8 {
		t.Errorf("YTM = %v, want %v", y, rate)
	}
}

func TestYieldToMaturityRejectsBadPrice(t *testing.T) {
	t.Parallel()

	b := bond.FixedCouponBond{
		MaturityDate: date(2030, time.January, 2),
		CouponRate:   0.04,
		Notional:     100,
		Frequency:    2,
	}
	if _, err := b.YieldToMaturity(date(2024, time.January, 2), 0); err == nil {
		t.Error("expected error for zero price")
	}
	if _, err := b.YieldToMaturity(date(2024, time.January, 2), -10); err == nil {
		t.Error("expected error for negative price")
	}
}
