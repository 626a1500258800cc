package portfolio_test

import (
	"math"
	"testing"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/bond"
	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/portfolio"
	"github.com/inigomace/fixed-income-risk-toolkit/risk"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCurve(t *testing.T) *curve.Curve {
	t.Helper()
	c, err := curve.New(curve.Params{Beta0: 0.04, Beta1: 0.005, Beta2: -0.01, Tau1: 1.5, Tau2: 5})
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}
	return c
}

func twoBonds() (bond.FixedCouponBond, bond.FixedCouponBond) {
	short := bond.FixedCouponBond{
		MaturityDate: date(2027, time.June, 15),
		CouponRate:   0.03,
		Notional:     100,
		Frequency:    2,
	}
	long := bond.FixedCouponBond{
		MaturityDate: date(2034, time.June, 15),
		CouponRate:   0.05,
		Notional:     100,
		Frequency:    2,
	}
	return short, long
}

func TestPortfolioPriceIsQuantityWeightedSum(t *testing.T) {
	t.Parallel()

	settlement := date(2025, time.January, 2)
	c := testCurve(t)
	short, long := twoBonds()

	book, err := portfolio.New(
		portfolio.Position{Name: "short", Instrument: short, Quantity: 2},
		portfolio.Position{Name: "long", Instrument: long, Quantity: -0.5},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := book.Price(c, settlement)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	ps, err := short.Price(c, settlement)
	if err != nil {
		t.Fatalf("short.Price: %v", err)
	}
	pl, err := long.Price(c, settlement)
	if err != nil {
		t.Fatalf("long.Price: %v", err)
	}
	want := 2*ps - 0.5*pl
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Price = %v, want %v", got, want)
	}
}

func TestEmptyPortfolioPricesToZero(t *testing.T) {
	t.Parallel()

	book, err := portfolio.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := book.Price(testCurve(t), date(2025, time.January, 2))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got != 0 {
		t.Errorf("Price = %v, want 0", got)
	}
}

func TestAddRejectsNilInstrument(t *testing.T) {
	t.Parallel()

	book, err := portfolio.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := book.Add(portfolio.Position{Name: "broken"}); err == nil {
		t.Fatal("Add: expected error for nil instrument")
	}
	if _, err := portfolio.New(portfolio.Position{Name: "broken"}); err == nil {
		t.Fatal("New: expected error for nil instrument")
	}
}

func TestPositionsReturnsCopy(t *testing.T) {
	t.Parallel()

	short, _ := twoBonds()
	book, err := portfolio.New(portfolio.Position{Name: "a", Instrument: short, Quantity: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := book.Positions()
	got[0].Quantity = 99
	if book.Positions()[0].Quantity != 1 {
		t.Error("Positions leaked internal state")
	}
	if book.Len() != 1 {
		t.Errorf("Len = %d, want 1", book.Len())
	}
}

func TestPortfolioRunsRiskEngines(t *testing.T) {
	t.Parallel()

	settlement := date(2025, time.January, 2)
	short, long := twoBonds()
	book, err := portfolio.New(
		portfolio.Position{Name: "short", Instrument: short, Quantity: 1},
		portfolio.Position{Name: "long", Instrument: long, Quantity: 1},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap, err := marketdata.NewSnapshot(map[string]float64{
		"3M": 0.0450, "6M": 0.0448, "1Y": 0.0440, "2Y": 0.0425,
		"3Y": 0.0415, "5Y": 0.0410, "7Y": 0.0412, "10Y": 0.0418,
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	kr, err := book.KeyRateDV01(snap, settlement, &risk.KeyRateConfig{KeyTenors: []string{"2Y", "5Y", "10Y"}})
	if err != nil {
		t.Fatalf("KeyRateDV01: %v", err)
	}
	if len(kr.Entries) != 3 {
		t.Errorf("key-rate entries = %d, want 3", len(kr.Entries))
	}
	if kr.BasePrice <= 0 {
		t.Errorf("BasePrice = %v, want positive", kr.BasePrice)
	}

	st, err := book.StressTests(snap, settlement, nil)
	if err != nil {
		t.Fatalf("StressTests: %v", err)
	}
	if sc := st.Scenario(risk.ScenarioParallel); sc == nil || sc.PnL >= 0 {
		t.Errorf("parallel stress = %+v, want a negative P&L for a long book", sc)
	}
}
