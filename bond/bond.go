package bond

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// FixedCouponBond is a plain fixed-coupon bullet bond: no embedded options,
// no inflation linking, no amortization. Timing uses ACT/365 and
// discounting uses the curve's continuously compounded discount factor.
type FixedCouponBond struct {
	MaturityDate time.Time
	// CouponRate is the annual coupon in decimal form (0.045 = 4.5%).
	CouponRate float64
	Notional   float64
	// Frequency is coupons per year and must divide 12 cleanly.
	Frequency int
}

// Cashflows returns the bond's future cashflows strictly after settlement.
func (b FixedCouponBond) Cashflows(settlement time.Time) ([]Cashflow, error) {
	return GenerateCashflows(settlement, b.MaturityDate, b.CouponRate, b.Notional, b.Frequency)
}

// Price discounts the bond's future cashflows against the curve:
//
//	PV = Σ CF_i · DF(t_i)
//
// where t_i is the ACT/365 year fraction from settlement to the cashflow
// date. Cashflows with a non-positive year fraction are excluded, which
// protects against boundary date arithmetic.
func (b FixedCouponBond) Price(c *curve.Curve, settlement time.Time) (float64, error) {
	cfs, err := b.Cashflows(settlement)
	if err != nil {
		return 0, fmt.Errorf("bond.Price: %w", err)
	}

	pv := 0.0
	for _, cf := range cfs {
		t := utils.YearFractionACT365(settlement, cf.Date)
		if t <= 0 {
			continue
		}
		df, err := c.DiscountFactor(t)
		if err != nil {
			return 0, fmt.Errorf("bond.Price: %w", err)
		}
		pv += cf.Amount() * df
	}
	return pv, nil
}
