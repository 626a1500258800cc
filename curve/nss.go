// Package curve implements the Nelson-Siegel-Svensson yield curve model and
// its calibration to observed tenor yields.
package curve

import (
	"fmt"
	"math"
)

// Params holds the six Nelson-Siegel-Svensson parameters.
//
//	y(t) = β0 + β1·L1(t,τ1) + β2·S1(t,τ1) + β3·S2(t,τ2)
//
// where L1 is the level/long loading and S1, S2 are slope/curvature style
// loadings. Yields are in decimal form (0.045 = 4.5%).
type Params struct {
	Beta0 float64
	Beta1 float64
	Beta2 float64
	Beta3 float64
	Tau1  float64
	Tau2  float64
}

// Validate checks that both decay constants are strictly positive and that
// every parameter is finite.
func (p Params) Validate() error {
	for _, v := range p.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("Params: non-finite parameter value")
		}
	}
	if p.Tau1 <= 0 {
		return fmt.Errorf("Params: tau1 must be strictly positive, got %v", p.Tau1)
	}
	if p.Tau2 <= 0 {
		return fmt.Errorf("Params: tau2 must be strictly positive, got %v", p.Tau2)
	}
	return nil
}

// Vector returns the parameters as a length-6 slice ordered
// [β0, β1, β2, β3, τ1, τ2].
func (p Params) Vector() []float64 {
	return []float64{p.Beta0, p.Beta1, p.Beta2, p.Beta3, p.Tau1, p.Tau2}
}

// ParamsFromVector builds Params from a length-6 slice in Vector order.
func ParamsFromVector(x []float64) (Params, error) {
	if len(x) != 6 {
		return Params{}, fmt.Errorf("ParamsFromVector: expected length-6 slice, got %d", len(x))
	}
	return Params{
		Beta0: x[0],
		Beta1: x[1],
		Beta2: x[2],
		Beta3: x[3],
		Tau1:  x[4],
		Tau2:  x[5],
	}, nil
}

// loadingFactor computes (1 - e^-x)/x with a 4-term series expansion for
// small x, where the closed form loses precision to cancellation.
func loadingFactor(x float64) float64 {
	if math.Abs(x) < 1e-8 {
		return 1.0 - x/2.0 + x*x/6.0 - x*x*x/24.0
	}
	return (1.0 - math.Exp(-x)) / x
}

// Loadings returns the three NSS loading values at maturity t (in years):
// L1(t,τ1), S1(t,τ1) and S2(t,τ2).
func Loadings(t, tau1, tau2 float64) (l1, s1, s2 float64, err error) {
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return 0, 0, 0, fmt.Errorf("Loadings: maturity must be strictly positive and finite, got %v", t)
	}
	if math.IsNaN(tau1) || math.IsInf(tau1, 0) || tau1 <= 0 {
		return 0, 0, 0, fmt.Errorf("Loadings: tau1 must be strictly positive and finite, got %v", tau1)
	}
	if math.IsNaN(tau2) || math.IsInf(tau2, 0) || tau2 <= 0 {
		return 0, 0, 0, fmt.Errorf("Loadings: tau2 must be strictly positive and finite, got %v", tau2)
	}

	x1 := t / tau1
	x2 := t / tau2

	l1 = loadingFactor(x1)
	s1 = l1 - math.Exp(-x1)
	s2 = loadingFactor(x2) - math.Exp(-x2)
	return l1, s1, s2, nil
}

// Yield computes the NSS model yield at maturity t (in years), in decimal.
func Yield(t float64, p Params) (float64, error) {
	l1, s1, s2, err := Loadings(t, p.Tau1, p.Tau2)
	if err != nil {
		return 0, err
	}
	return p.Beta0 + p.Beta1*l1 + p.Beta2*s1 + p.Beta3*s2, nil
}

// Yields computes model yields for a slice of maturities.
func Yields(maturities []float64, p Params) ([]float64, error) {
	out := make([]float64, len(maturities))
	for i, t := range maturities {
		y, err := Yield(t, p)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}
