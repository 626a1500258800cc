package curve

import (
	"fmt"
	"math"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// Curve is an immutable NSS yield curve. It is created by calibration or
// direct parameter construction and carries no mutable state, so a single
// value can be shared freely across pricing and risk loops.
type Curve struct {
	params Params
}

// New builds a Curve from validated parameters.
func New(p Params) (*Curve, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("curve.New: %w", err)
	}
	return &Curve{params: p}, nil
}

// Params returns the curve's parameters.
func (c *Curve) Params() Params {
	return c.params
}

// YieldAt returns the model yield at maturity t in years, in decimal.
func (c *Curve) YieldAt(t float64) (float64, error) {
	return Yield(t, c.params)
}

// DiscountFactor returns the continuously compounded discount factor
// DF(t) = exp(-y(t)·t) for maturity t in years.
func (c *Curve) DiscountFactor(t float64) (float64, error) {
	y, err := c.YieldAt(t)
	if err != nil {
		return 0, err
	}
	return math.Exp(-y * t), nil
}

// ForwardRate returns the continuously compounded forward rate implied by
// discount factors between maturities t1 and t2:
//
//	f(t1,t2) = (ln DF(t1) - ln DF(t2)) / (t2 - t1)
func (c *Curve) ForwardRate(t1, t2 float64) (float64, error) {
	if t1 <= 0 || t2 <= 0 || t2 <= t1 {
		return 0, fmt.Errorf("ForwardRate: require 0 < t1 < t2, got t1=%v t2=%v", t1, t2)
	}
	df1, err := c.DiscountFactor(t1)
	if err != nil {
		return 0, err
	}
	df2, err := c.DiscountFactor(t2)
	if err != nil {
		return 0, err
	}
	return (math.Log(df1) - math.Log(df2)) / (t2 - t1), nil
}

// YieldsForTenors computes model yields for tenor strings like
// ["3M","1Y","10Y"], preserving input order.
func (c *Curve) YieldsForTenors(tenors []string) ([]float64, error) {
	out := make([]float64, len(tenors))
	for i, tenor := range tenors {
		years, err := utils.TenorToYears(tenor)
		if err != nil {
			return nil, fmt.Errorf("YieldsForTenors: %w", err)
		}
		y, err := c.YieldAt(years)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

// DiscountFactorsForTenors computes discount factors for tenor strings,
// preserving input order.
func (c *Curve) DiscountFactorsForTenors(tenors []string) ([]float64, error) {
	out := make([]float64, len(tenors))
	for i, tenor := range tenors {
		years, err := utils.TenorToYears(tenor)
		if err != nil {
			return nil, fmt.Errorf("DiscountFactorsForTenors: %w", err)
		}
		df, err := c.DiscountFactor(years)
		if err != nil {
			return nil, err
		}
		out[i] = df
	}
	return out, nil
}

// Grid returns model yields for an explicit maturity grid in years.
func (c *Curve) Grid(maturities []float64) ([]float64, error) {
	return Yields(maturities, c.params)
}
