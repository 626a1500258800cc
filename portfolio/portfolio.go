// Package portfolio aggregates instruments into a single priceable unit so
// the risk engines can run on a book exactly as they run on one bond.
package portfolio

import (
	"fmt"
	"time"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/risk"
)

// Position is an instrument held in some quantity. Negative quantities
// represent short positions.
type Position struct {
	Name       string
	Instrument risk.Instrument
	Quantity   float64
}

// Portfolio is a quantity-weighted collection of positions. It implements
// risk.Instrument, so every engine in the risk package accepts it directly.
type Portfolio struct {
	positions []Position
}

// New builds a portfolio from the given positions. Positions with a nil
// instrument are rejected.
func New(positions ...Position) (*Portfolio, error) {
	p := &Portfolio{}
	for _, pos := range positions {
		if err := p.Add(pos); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add appends a position to the portfolio.
func (p *Portfolio) Add(pos Position) error {
	if pos.Instrument == nil {
		return fmt.Errorf("Portfolio.Add: position %q has a nil instrument", pos.Name)
	}
	p.positions = append(p.positions, pos)
	return nil
}

// Len reports the number of positions.
func (p *Portfolio) Len() int { return len(p.positions) }

// Positions returns a copy of the position list.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, len(p.positions))
	copy(out, p.positions)
	return out
}

// Price returns the quantity-weighted sum of position prices on the curve.
// An empty portfolio prices to zero.
func (p *Portfolio) Price(c *curve.Curve, settlement time.Time) (float64, error) {
	total := 0.0
	for _, pos := range p.positions {
		px, err := pos.Instrument.Price(c, settlement)
		if err != nil {
			return 0, fmt.Errorf("Portfolio.Price: position %q: %w", pos.Name, err)
		}
		total += pos.Quantity * px
	}
	return total, nil
}

// KeyRateDV01 runs the key-rate engine on the whole portfolio.
func (p *Portfolio) KeyRateDV01(snap marketdata.Snapshot, settlement time.Time, cfg *risk.KeyRateConfig) (*risk.KeyRateResult, error) {
	return risk.KeyRateDV01(p, snap, settlement, cfg)
}

// StressTests runs the stress engine on the whole portfolio.
func (p *Portfolio) StressTests(snap marketdata.Snapshot, settlement time.Time, cfg *risk.StressConfig) (*risk.StressResult, error) {
	return risk.StressTests(p, snap, settlement, cfg)
}

// HistoricalVaR runs historical-simulation VaR on the whole portfolio.
func (p *Portfolio) HistoricalVaR(hist *marketdata.History, settlement time.Time, cfg *risk.HistoricalVaRConfig) (*risk.HistoricalVaRResult, error) {
	return risk.HistoricalVaR(p, hist, settlement, cfg)
}

// MonteCarloVaR runs Monte Carlo VaR on the whole portfolio.
func (p *Portfolio) MonteCarloVaR(hist *marketdata.History, settlement time.Time, cfg *risk.MonteCarloVaRConfig) (*risk.MonteCarloVaRResult, error) {
	return risk.MonteCarloVaR(p, hist, settlement, cfg)
}
