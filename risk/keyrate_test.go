package risk_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/inigomace/fixed-income-risk-toolkit/risk"
)

func TestKeyRateDV01Defaults(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot(t)
	res, err := risk.KeyRateDV01(fixtureBond(), snap, fixtureSettlement(), nil)
	if err != nil {
		t.Fatalf("KeyRateDV01: %v", err)
	}

	if res.BasePrice <= 0 || math.IsNaN(res.BasePrice) {
		t.Fatalf("BasePrice = %v, want positive finite", res.BasePrice)
	}
	if res.BumpBP != 1.0 {
		t.Errorf("BumpBP = %v, want default 1", res.BumpBP)
	}
	want := []string{"3M", "6M", "1Y", "2Y", "3Y", "5Y", "7Y", "10Y"}
	if !reflect.DeepEqual(res.Tenors, want) {
		t.Errorf("Tenors = %v, want canonical ascending %v", res.Tenors, want)
	}
	if len(res.Entries) != len(want) {
		t.Fatalf("entries = %d, want one per tenor", len(res.Entries))
	}
	for _, e := range res.Entries {
		if math.IsNaN(e.DV01) || math.IsInf(e.DV01, 0) {
			t.Errorf("DV01 for %s = %v, want finite", e.Tenor, e.DV01)
		}
		if math.Abs(e.BumpedPrice-res.BasePrice-e.DV01) > 1e-12 {
			t.Errorf("entry %s: DV01 %v inconsistent with prices %v/%v",
				e.Tenor, e.DV01, e.BumpedPrice, res.BasePrice)
		}
	}

	dv01s := res.DV01s()
	if len(dv01s) != len(want) {
		t.Errorf("DV01s map has %d keys, want %d", len(dv01s), len(want))
	}
}

func TestKeyRateDV01TenorSubset(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot(t)
	cfg := &risk.KeyRateConfig{KeyTenors: []string{"10y", "2Y"}, BumpBP: 5}
	res, err := risk.KeyRateDV01(fixtureBond(), snap, fixtureSettlement(), cfg)
	if err != nil {
		t.Fatalf("KeyRateDV01: %v", err)
	}
	if !reflect.DeepEqual(res.Tenors, []string{"2Y", "10Y"}) {
		t.Errorf("Tenors = %v, want sorted normalized [2Y 10Y]", res.Tenors)
	}
	if res.BumpBP != 5 {
		t.Errorf("BumpBP = %v, want 5", res.BumpBP)
	}
}

func TestKeyRateDV01MissingTenorFailsEarly(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot(t)
	cfg := &risk.KeyRateConfig{KeyTenors: []string{"2Y", "30Y"}}
	if _, err := risk.KeyRateDV01(fixtureBond(), snap, fixtureSettlement(), cfg); err == nil {
		t.Fatal("expected error for a key tenor absent from the snapshot")
	}
}
