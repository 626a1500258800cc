package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

const (
	ytmTolerance = 1e-12
	ytmMaxIter   = 100
	ytmFloor     = -0.05
	ytmCeiling   = 0.50
)

// YieldToMaturity solves for the flat continuously compounded yield y such
// that discounting the bond's cashflows at y reproduces the target price:
//
//	price = Σ CF_i · e^(-y·t_i)    (t_i in ACT/365 years)
//
// The solver is Newton-Raphson with analytic first derivative, clamped to
// a sane yield range.
func (b FixedCouponBond) YieldToMaturity(settlement time.Time, price float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("YieldToMaturity: price must be positive, got %v", price)
	}
	cfs, err := b.Cashflows(settlement)
	if err != nil {
		return 0, fmt.Errorf("YieldToMaturity: %w", err)
	}

	// Initial guess: the coupon rate.
	y := clamp(b.CouponRate, ytmFloor, ytmCeiling)

	for iter := 0; iter < ytmMaxIter; iter++ {
		pv, dPVdy := pvAndDeriv(y, settlement, cfs)
		f := pv - price

		if math.Abs(f) < ytmTolerance {
			return y, nil
		}
		if math.Abs(dPVdy) < 1e-15 {
			return y, fmt.Errorf("YieldToMaturity: derivative too small at iteration %d", iter)
		}

		y = clamp(y-f/dPVdy, ytmFloor, ytmCeiling)
	}

	return y, fmt.Errorf("YieldToMaturity: did not converge after %d iterations", ytmMaxIter)
}

// pvAndDeriv returns (PV, dPV/dy) for a flat continuous yield y.
func pvAndDeriv(y float64, settlement time.Time, cfs []Cashflow) (float64, float64) {
	var pv, deriv float64
	for _, cf := range cfs {
		t := utils.YearFractionACT365(settlement, cf.Date)
		if t <= 0 {
			continue
		}
		disc := math.Exp(-y * t)
		amt := cf.Amount()
		pv += amt * disc
		deriv += -t * amt * disc
	}
	return pv, deriv
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
