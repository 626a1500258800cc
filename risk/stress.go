package risk

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// Deterministic scenario names produced by StressTests.
const (
	ScenarioParallel  = "parallel"
	ScenarioSteepener = "steepener"
	ScenarioFlattener = "flattener"
)

// StressConfig tunes the stress engine. The zero value (or a nil pointer)
// selects the canonical tenor set and a 25bp shock.
type StressConfig struct {
	Tenors []string
	// ShockBP is the shock size in basis points (default 25).
	ShockBP     float64
	Calibration *curve.CalibrationOptions
}

// StressScenario is one shaped shock: the shocked snapshot, its refit
// price and the P&L against the base price.
type StressScenario struct {
	Name          string
	ShockedYields marketdata.Snapshot
	Price         float64
	PnL           float64
	Converged     bool
	FitMessage    string
}

// StressResult holds the base price and the three deterministic scenarios
// in parallel/steepener/flattener order.
type StressResult struct {
	BasePrice float64
	BaseFit   curve.FitStats
	ShockBP   float64
	Tenors    []string
	Scenarios []StressScenario
}

// Scenario returns the named scenario, or nil when absent.
func (r *StressResult) Scenario(name string) *StressScenario {
	for i := range r.Scenarios {
		if r.Scenarios[i].Name == name {
			return &r.Scenarios[i]
		}
	}
	return nil
}

// StressTests runs three deterministic scenarios against one base price:
// parallel (full shock everywhere), steepener (shock weighted 0 at the
// shortest tenor up to 1 at the longest) and flattener (the complementary
// weighting). Each scenario independently recalibrates and reprices.
func StressTests(inst Instrument, snap marketdata.Snapshot, settlement time.Time, cfg *StressConfig) (*StressResult, error) {
	conf := StressConfig{}
	if cfg != nil {
		conf = *cfg
	}
	if conf.ShockBP == 0 {
		conf.ShockBP = 25.0
	}

	tenors, err := resolveTenors(conf.Tenors, snap)
	if err != nil {
		return nil, fmt.Errorf("StressTests: %w", err)
	}

	basePrice, baseFit, err := FitSnapshot(inst, snap, tenors, settlement, conf.Calibration)
	if err != nil {
		return nil, fmt.Errorf("StressTests: %w", err)
	}

	shock := conf.ShockBP * 1e-4
	weights, err := maturityWeights(tenors)
	if err != nil {
		return nil, fmt.Errorf("StressTests: %w", err)
	}

	shapes := []struct {
		name   string
		deltas []float64
	}{
		{ScenarioParallel, constantDeltas(len(tenors), shock)},
		{ScenarioSteepener, scaleDeltas(weights, shock)},
		{ScenarioFlattener, complementDeltas(weights, shock)},
	}

	result := &StressResult{
		BasePrice: basePrice,
		BaseFit:   baseFit,
		ShockBP:   conf.ShockBP,
		Tenors:    tenors,
		Scenarios: make([]StressScenario, 0, len(shapes)),
	}

	for _, shape := range shapes {
		shocked, err := snap.Shift(tenors, shape.deltas)
		if err != nil {
			return nil, fmt.Errorf("StressTests: %w", err)
		}
		price, fit, err := FitSnapshot(inst, shocked, tenors, settlement, conf.Calibration)
		if err != nil {
			return nil, fmt.Errorf("StressTests: %w", err)
		}
		result.Scenarios = append(result.Scenarios, StressScenario{
			Name:          shape.name,
			ShockedYields: shocked,
			Price:         price,
			PnL:           price - basePrice,
			Converged:     fit.Success,
			FitMessage:    fit.Message,
		})
	}

	return result, nil
}

// maturityWeights interpolates linearly from 0 at the shortest tenor to 1
// at the longest. When every tenor has the same maturity the weight is 1
// for all of them, avoiding a division by zero.
func maturityWeights(tenors []string) ([]float64, error) {
	mats := make([]float64, len(tenors))
	for i, tenor := range tenors {
		y, err := utils.TenorToYears(tenor)
		if err != nil {
			return nil, err
		}
		mats[i] = y
	}

	lo, hi := mats[0], mats[0]
	for _, m := range mats[1:] {
		if m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}

	weights := make([]float64, len(mats))
	if hi == lo {
		for i := range weights {
			weights[i] = 1.0
		}
		return weights, nil
	}
	for i, m := range mats {
		weights[i] = (m - lo) / (hi - lo)
	}
	return weights, nil
}

func constantDeltas(n int, shock float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = shock
	}
	return out
}

func scaleDeltas(weights []float64, shock float64) []float64 {
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w * shock
	}
	return out
}

func complementDeltas(weights []float64, shock float64) []float64 {
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = (1.0 - w) * shock
	}
	return out
}
