package marketdata_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
)

func baseSnapshot(t *testing.T) marketdata.Snapshot {
	t.Helper()
	snap, err := marketdata.NewSnapshot(map[string]float64{
		"3m": 0.0520, "6M": 0.0510, "1y": 0.0495,
		"2Y": 0.0460, "5Y": 0.0430, "10Y": 0.0425,
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func TestNewSnapshotNormalizesKeys(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot(t)
	for _, tenor := range []string{"3M", "6M", "1Y", "2Y", "5Y", "10Y"} {
		if _, ok := snap[tenor]; !ok {
			t.Errorf("tenor %s missing after normalization; keys: %v", tenor, snap)
		}
	}
	if _, err := marketdata.NewSnapshot(map[string]float64{"bogus": 0.01}); err == nil {
		t.Error("NewSnapshot: expected error for invalid tenor key")
	}
}

func TestBumpLeavesReceiverUntouched(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot(t)
	before := snap.Clone()

	bumped, err := snap.Bump("5y", 0.0001)
	if err != nil {
		t.Fatalf("Bump: %v", err)
	}
	if math.Abs(bumped["5Y"]-(before["5Y"]+0.0001)) > 1e-15 {
		t.Errorf("bumped 5Y = %v, want %v", bumped["5Y"], before["5Y"]+0.0001)
	}
	if !reflect.DeepEqual(map[string]float64(snap), map[string]float64(before)) {
		t.Error("Bump mutated the receiver")
	}

	if _, err := snap.Bump("30Y", 0.0001); err == nil {
		t.Error("Bump: expected error for absent tenor")
	}
}

func TestShift(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot(t)
	shifted, err := snap.Shift([]string{"3M", "10Y"}, []float64{0.001, -0.002})
	if err != nil {
		t.Fatalf("Shift: %v", err)
	}
	if math.Abs(shifted["3M"]-(snap["3M"]+0.001)) > 1e-15 {
		t.Errorf("3M = %v, want %v", shifted["3M"], snap["3M"]+0.001)
	}
	if math.Abs(shifted["10Y"]-(snap["10Y"]-0.002)) > 1e-15 {
		t.Errorf("10Y = %v, want %v", shifted["10Y"], snap["10Y"]-0.002)
	}
	// Untouched tenors carry over.
	if shifted["2Y"] != snap["2Y"] {
		t.Errorf("2Y changed unexpectedly: %v vs %v", shifted["2Y"], snap["2Y"])
	}

	if _, err := snap.Shift([]string{"3M"}, []float64{0.001, 0.002}); err == nil {
		t.Error("Shift: expected error for length mismatch")
	}
	if _, err := snap.Shift([]string{"30Y"}, []float64{0.001}); err == nil {
		t.Error("Shift: expected error for absent tenor")
	}
}

func TestYieldsPreservesOrder(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot(t)
	got, err := snap.Yields([]string{"10y", "3M"})
	if err != nil {
		t.Fatalf("Yields: %v", err)
	}
	want := []float64{snap["10Y"], snap["3M"]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Yields = %v, want %v", got, want)
	}

	if _, err := snap.Yields([]string{"7Y"}); err == nil {
		t.Error("Yields: expected error for absent tenor")
	}
}

func TestSnapshotMissingTenors(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot(t)
	missing, err := snap.MissingTenors([]string{"3M", "7Y", "30Y"})
	if err != nil {
		t.Fatalf("MissingTenors: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"7Y", "30Y"}) {
		t.Errorf("MissingTenors = %v, want [7Y 30Y]", missing)
	}
}
