package risk_test

import (
	"math"
	"testing"

	"github.com/inigomace/fixed-income-risk-toolkit/risk"
)

func TestStressTestsScenarios(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot(t)
	res, err := risk.StressTests(fixtureBond(), snap, fixtureSettlement(), nil)
	if err != nil {
		t.Fatalf("StressTests: %v", err)
	}

	if res.ShockBP != 25 {
		t.Errorf("ShockBP = %v, want default 25", res.ShockBP)
	}
	// Base fit diagnostics travel with the result, so a shaky unperturbed
	// fit is as visible as a shaky scenario fit.
	if res.BaseFit.NPoints != len(res.Tenors) {
		t.Errorf("BaseFit.NPoints = %d, want %d", res.BaseFit.NPoints, len(res.Tenors))
	}
	if !res.BaseFit.Success {
		t.Errorf("BaseFit.Success = false on model-generated yields: %s", res.BaseFit.Message)
	}
	if len(res.Scenarios) != 3 {
		t.Fatalf("scenarios = %d, want parallel/steepener/flattener", len(res.Scenarios))
	}

	parallel := res.Scenario(risk.ScenarioParallel)
	steep := res.Scenario(risk.ScenarioSteepener)
	flat := res.Scenario(risk.ScenarioFlattener)
	if parallel == nil || steep == nil || flat == nil {
		t.Fatalf("missing scenario: %+v", res.Scenarios)
	}
	if res.Scenario("unknown") != nil {
		t.Error("Scenario(unknown) should be nil")
	}

	// A 25bp rise in rates must cost a long bond position, and the full
	// parallel shock must cost more than either partial shape.
	if parallel.PnL >= 0 {
		t.Errorf("parallel PnL = %v, want negative", parallel.PnL)
	}
	if parallel.PnL >= steep.PnL {
		t.Errorf("parallel PnL %v should be below steepener PnL %v", parallel.PnL, steep.PnL)
	}
	if parallel.PnL >= flat.PnL {
		t.Errorf("parallel PnL %v should be below flattener PnL %v", parallel.PnL, flat.PnL)
	}

	for _, sc := range res.Scenarios {
		if math.IsNaN(sc.Price) || sc.Price <= 0 {
			t.Errorf("scenario %s price = %v", sc.Name, sc.Price)
		}
		if math.Abs(sc.Price-res.BasePrice-sc.PnL) > 1e-12 {
			t.Errorf("scenario %s PnL inconsistent with prices", sc.Name)
		}
		if sc.ShockedYields == nil {
			t.Errorf("scenario %s carries no shocked snapshot", sc.Name)
		}
	}
}

func TestStressShockShapes(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot(t)
	res, err := risk.StressTests(fixtureBond(), snap, fixtureSettlement(), &risk.StressConfig{ShockBP: 10})
	if err != nil {
		t.Fatalf("StressTests: %v", err)
	}
	shock := 10.0 * 1e-4

	parallel := res.Scenario(risk.ScenarioParallel)
	for _, tenor := range res.Tenors {
		got := parallel.ShockedYields[tenor] - snap[tenor]
		if math.Abs(got-shock) > 1e-12 {
			t.Errorf("parallel shift at %s = %v, want %v", tenor, got, shock)
		}
	}

	// Steepener leaves the short end unshocked and applies the full shock
	// at the long end; the flattener mirrors it.
	steep := res.Scenario(risk.ScenarioSteepener)
	flat := res.Scenario(risk.ScenarioFlattener)
	short, long := res.Tenors[0], res.Tenors[len(res.Tenors)-1]

	if d := steep.ShockedYields[short] - snap[short]; math.Abs(d) > 1e-12 {
		t.Errorf("steepener shift at %s = %v, want 0", short, d)
	}
	if d := steep.ShockedYields[long] - snap[long]; math.Abs(d-shock) > 1e-12 {
		t.Errorf("steepener shift at %s = %v, want %v", long, d, shock)
	}
	if d := flat.ShockedYields[short] - snap[short]; math.Abs(d-shock) > 1e-12 {
		t.Errorf("flattener shift at %s = %v, want %v", short, d, shock)
	}
	if d := flat.ShockedYields[long] - snap[long]; math.Abs(d) > 1e-12 {
		t.Errorf("flattener shift at %s = %v, want 0", long, d)
	}

	// The two partial shapes sum to the parallel shock at every tenor.
	for _, tenor := range res.Tenors {
		sum := (steep.ShockedYields[tenor] - snap[tenor]) + (flat.ShockedYields[tenor] - snap[tenor])
		if math.Abs(sum-shock) > 1e-12 {
			t.Errorf("steepener+flattener at %s = %v, want %v", tenor, sum, shock)
		}
	}
}
