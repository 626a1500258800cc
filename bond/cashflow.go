// Package bond implements fixed-coupon bullet bonds: schedule generation,
// curve-based pricing and yield-to-maturity.
package bond

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// Cashflow is a single dated cash payment.
//
// Amounts are in the bond's notional currency units.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// monthsPerPeriod converts coupons-per-year to the month step between
// payments. The frequency must divide 12 cleanly (1, 2, 3, 4, 6, 12).
func monthsPerPeriod(frequency int) (int, error) {
	if frequency <= 0 {
		return 0, fmt.Errorf("bond: frequency must be positive, got %d", frequency)
	}
	if 12%frequency != 0 {
		return 0, fmt.Errorf("bond: frequency must divide 12 cleanly, got %d", frequency)
	}
	return 12 / frequency, nil
}

// CouponSchedule builds the coupon dates for a bullet bond by walking
// backward from maturity in equal-month steps, keeping only dates strictly
// after settlement. The returned slice is ascending and always ends with
// the maturity date.
func CouponSchedule(settlement, maturity time.Time, frequency int) ([]time.Time, error) {
	if !maturity.After(settlement) {
		return nil, fmt.Errorf("CouponSchedule: maturity %s must be after settlement %s",
			maturity.Format("2006-01-02"), settlement.Format("2006-01-02"))
	}
	months, err := monthsPerPeriod(frequency)
	if err != nil {
		return nil, fmt.Errorf("CouponSchedule: %w", err)
	}

	var dates []time.Time
	for d := maturity; d.After(settlement); d = utils.AddMonth(d, -months) {
		dates = append(dates, d)
	}
	// Walked backward from maturity; flip to chronological order.
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates, nil
}

// GenerateCashflows produces the future cashflows of a fixed-coupon bullet
// bond occurring strictly after settlement. The coupon rate is decimal
// (0.05 = 5%); principal is repaid in full at maturity.
func GenerateCashflows(settlement, maturity time.Time, couponRate, notional float64, frequency int) ([]Cashflow, error) {
	schedule, err := CouponSchedule(settlement, maturity, frequency)
	if err != nil {
		return nil, err
	}

	coupon := notional * couponRate / float64(frequency)

	cfs := make([]Cashflow, 0, len(schedule))
	for _, d := range schedule {
		cf := Cashflow{Date: d, Coupon: coupon}
		if d.Equal(maturity) {
			cf.Principal = notional
		}
		cfs = append(cfs, cf)
	}
	return cfs, nil
}
