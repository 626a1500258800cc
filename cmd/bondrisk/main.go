// Command bondrisk runs the full risk sweep for a bond portfolio off a
// yield history: key-rate DV01s, stress scenarios, historical VaR and
// Monte Carlo VaR, reported as a single JSON document.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inigomace/fixed-income-risk-toolkit/bond"
	"github.com/inigomace/fixed-income-risk-toolkit/marketdata"
	"github.com/inigomace/fixed-income-risk-toolkit/portfolio"
	"github.com/inigomace/fixed-income-risk-toolkit/risk"
	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

type config struct {
	History struct {
		// CSV path, or a Postgres DSN + table when Source is "postgres".
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
		DSN    string `yaml:"dsn"`
		Table  string `yaml:"table"`
		// Missing is one of ffill, drop, error (default ffill).
		Missing string `yaml:"missing"`
	} `yaml:"history"`

	Settlement string     `yaml:"settlement"`
	Tenors     []string   `yaml:"tenors"`
	Positions  []position `yaml:"positions"`

	KeyRate struct {
		BumpBP float64 `yaml:"bump_bp"`
	} `yaml:"keyrate"`
	Stress struct {
		ShockBP float64 `yaml:"shock_bp"`
	} `yaml:"stress"`
	VaR struct {
		LookbackDays     int       `yaml:"lookback_days"`
		ConfidenceLevels []float64 `yaml:"confidence_levels"`
		NumSims          int       `yaml:"num_sims"`
		Seed             uint64    `yaml:"seed"`
	} `yaml:"var"`

	Verbose bool `yaml:"verbose"`
}

type position struct {
	Name       string  `yaml:"name"`
	Maturity   string  `yaml:"maturity"`
	CouponRate float64 `yaml:"coupon_rate"`
	Notional   float64 `yaml:"notional"`
	Frequency  int     `yaml:"frequency"`
	Quantity   float64 `yaml:"quantity"`
}

type report struct {
	Settlement string                        `json:"settlement"`
	BaseDate   string                        `json:"base_date"`
	Tenors     []string                      `json:"tenors"`
	BasePrice  float64                       `json:"base_price"`
	KeyRate    map[string]float64            `json:"keyrate_dv01"`
	Stress     []stressLine                  `json:"stress"`
	Historical *varLine                      `json:"historical_var"`
	MonteCarlo *varLine                      `json:"montecarlo_var"`
}

type stressLine struct {
	Name      string  `json:"name"`
	PnL       float64 `json:"pnl"`
	Converged bool    `json:"converged"`
}

type varLine struct {
	LookbackDays int                `json:"lookback_days"`
	VaR          map[string]float64 `json:"var"`
	NonConverged int                `json:"non_converged"`
}

func main() {
	configPath := flag.String("config", "", "YAML config path (required)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help || *configPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: bondrisk -config <path>")
		fmt.Fprintln(os.Stderr, "Run key-rate, stress and VaR analysis for a bond portfolio.")
		if *configPath == "" && !*help {
			os.Exit(2)
		}
		return
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(*configPath, log); err != nil {
		log.WithError(err).Fatal("bondrisk failed")
	}
}

func run(configPath string, log *logrus.Logger) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	settlement, err := utils.ParseDate(cfg.Settlement)
	if err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	if len(cfg.Positions) == 0 {
		return fmt.Errorf("config lists no positions")
	}

	hist, err := loadHistory(cfg, log)
	if err != nil {
		return err
	}
	baseDate, baseSnap, err := hist.Latest()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"rows":      hist.Len(),
		"base_date": baseDate.Format("2006-01-02"),
	}).Info("yield history loaded")

	book, err := buildPortfolio(cfg.Positions)
	if err != nil {
		return err
	}

	krCfg := &risk.KeyRateConfig{KeyTenors: cfg.Tenors, BumpBP: cfg.KeyRate.BumpBP}
	kr, err := book.KeyRateDV01(baseSnap, settlement, krCfg)
	if err != nil {
		return fmt.Errorf("key-rate: %w", err)
	}
	if !kr.BaseFit.Success {
		log.WithField("status", kr.BaseFit.Message).Warn("base snapshot fit did not converge")
	}
	for _, e := range kr.Entries {
		if !e.Converged {
			log.WithFields(logrus.Fields{
				"tenor":  e.Tenor,
				"status": e.FitMessage,
			}).Warn("key-rate bump fit did not converge")
		}
	}
	log.WithField("tenors", len(kr.Entries)).Debug("key-rate DV01 done")

	stCfg := &risk.StressConfig{Tenors: cfg.Tenors, ShockBP: cfg.Stress.ShockBP}
	st, err := book.StressTests(baseSnap, settlement, stCfg)
	if err != nil {
		return fmt.Errorf("stress: %w", err)
	}
	for _, sc := range st.Scenarios {
		if !sc.Converged {
			log.WithFields(logrus.Fields{
				"scenario": sc.Name,
				"status":   sc.FitMessage,
			}).Warn("stress scenario fit did not converge")
		}
	}

	hvCfg := &risk.HistoricalVaRConfig{
		Tenors:           cfg.Tenors,
		LookbackDays:     cfg.VaR.LookbackDays,
		ConfidenceLevels: cfg.VaR.ConfidenceLevels,
	}
	hv, err := book.HistoricalVaR(hist, settlement, hvCfg)
	if err != nil {
		return fmt.Errorf("historical VaR: %w", err)
	}
	if hv.NonConverged > 0 {
		log.WithField("count", hv.NonConverged).Warn("historical VaR fits did not converge")
	}

	mcCfg := &risk.MonteCarloVaRConfig{
		Tenors:           cfg.Tenors,
		LookbackDays:     cfg.VaR.LookbackDays,
		ConfidenceLevels: cfg.VaR.ConfidenceLevels,
		NumSims:          cfg.VaR.NumSims,
		Seed:             cfg.VaR.Seed,
	}
	mc, err := book.MonteCarloVaR(hist, settlement, mcCfg)
	if err != nil {
		return fmt.Errorf("Monte Carlo VaR: %w", err)
	}
	if mc.NonConverged > 0 {
		log.WithField("count", mc.NonConverged).Warn("Monte Carlo VaR fits did not converge")
	}

	out := report{
		Settlement: settlement.Format("2006-01-02"),
		BaseDate:   baseDate.Format("2006-01-02"),
		Tenors:     kr.Tenors,
		BasePrice:  kr.BasePrice,
		KeyRate:    kr.DV01s(),
		Historical: toVarLine(hv.LookbackDays, hv.VaRByLevel, hv.NonConverged),
		MonteCarlo: toVarLine(mc.LookbackDays, mc.VaRByLevel, mc.NonConverged),
	}
	for _, sc := range st.Scenarios {
		out.Stress = append(out.Stress, stressLine{Name: sc.Name, PnL: sc.PnL, Converged: sc.Converged})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func loadHistory(cfg config, log *logrus.Logger) (*marketdata.History, error) {
	switch cfg.History.Source {
	case "", "csv":
		if cfg.History.Path == "" {
			return nil, fmt.Errorf("history.path is required for a CSV source")
		}
		loadCfg := &marketdata.LoadConfig{
			RequiredTenors: cfg.Tenors,
			MissingPolicy:  cfg.History.Missing,
			Logger:         log,
		}
		return marketdata.LoadCSV(cfg.History.Path, loadCfg)
	case "postgres":
		src, err := marketdata.OpenPostgres(cfg.History.DSN, cfg.History.Table)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.LoadHistory(cfg.Tenors)
	default:
		return nil, fmt.Errorf("unknown history source %q", cfg.History.Source)
	}
}

func buildPortfolio(positions []position) (*portfolio.Portfolio, error) {
	book, err := portfolio.New()
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		maturity, err := utils.ParseDate(p.Maturity)
		if err != nil {
			return nil, fmt.Errorf("position %q: %w", p.Name, err)
		}
		qty := p.Quantity
		if qty == 0 {
			qty = 1
		}
		freq := p.Frequency
		if freq == 0 {
			freq = 2
		}
		err = book.Add(portfolio.Position{
			Name: p.Name,
			Instrument: bond.FixedCouponBond{
				MaturityDate: maturity,
				CouponRate:   p.CouponRate,
				Notional:     p.Notional,
				Frequency:    freq,
			},
			Quantity: qty,
		})
		if err != nil {
			return nil, err
		}
	}
	return book, nil
}

func toVarLine(lookback int, byLevel map[float64]float64, nonConverged int) *varLine {
	out := make(map[string]float64, len(byLevel))
	for level, v := range byLevel {
		out[fmt.Sprintf("%g", level)] = v
	}
	return &varLine{LookbackDays: lookback, VaR: out, NonConverged: nonConverged}
}
