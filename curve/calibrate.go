package curve

import (
	"fmt"
	"math"
	"sort"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// FitStats holds calibration diagnostics. The fitted/observed/maturity
// vectors are aligned with Tenors, sorted ascending by maturity.
type FitStats struct {
	RMSE        float64
	MaxAbsError float64
	NPoints     int
	Success     bool
	Cost        float64
	Message     string
	Evaluations int

	Tenors     []string
	Maturities []float64
	Observed   []float64
	Fitted     []float64
}

// CalibrationOptions overrides calibration defaults. The zero value (or a
// nil pointer) selects the default guess, bounds and solver backend.
type CalibrationOptions struct {
	// InitialGuess replaces the default starting point.
	InitialGuess *Params
	// LowerBounds and UpperBounds replace the default box constraints.
	// Both must be length 6 in Params.Vector order when set.
	LowerBounds []float64
	UpperBounds []float64
	// Solver replaces the default LeastSquares backend.
	Solver Solver
	// MaxEvaluations caps residual evaluations (default 5000).
	MaxEvaluations int
}

// defaultBounds returns the default box constraints: level in [-5%, 20%],
// loadings in [-50%, 50%], decay constants in [1e-3, 20] years.
func defaultBounds() (lower, upper []float64) {
	lower = []float64{-0.05, -0.50, -0.50, -0.50, 1e-3, 1e-3}
	upper = []float64{0.20, 0.50, 0.50, 0.50, 20.0, 20.0}
	return lower, upper
}

// GuessInitial builds the default starting point: the level anchored to the
// longest-maturity observed yield, small fixed loadings and decay constants
// of 1 and 3 years. Non-finite observations are ignored.
func GuessInitial(tenors []string, observed []float64) Params {
	guess := Params{Beta0: 0.03, Beta1: -0.02, Beta2: 0.02, Beta3: 0.01, Tau1: 1.0, Tau2: 3.0}

	longest := math.Inf(-1)
	for i, tenor := range tenors {
		if i >= len(observed) {
			break
		}
		y := observed[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		years, err := utils.TenorToYears(tenor)
		if err != nil {
			continue
		}
		if years > longest {
			longest = years
			guess.Beta0 = y
		}
	}
	return guess
}

// Calibrate fits NSS parameters to an observed yield snapshot by nonlinear
// least squares on yield residuals (modeled - observed).
//
// tenors and observed must be the same length; non-finite yields are
// dropped and at least 4 valid points must remain. Points are sorted
// ascending by implied maturity before fitting. Solver non-convergence is
// reported through FitStats.Success, not as an error.
func Calibrate(tenors []string, observed []float64, opts *CalibrationOptions) (Params, FitStats, error) {
	if len(tenors) != len(observed) {
		return Params{}, FitStats{}, fmt.Errorf("Calibrate: tenors and observed yields must have the same length (%d vs %d)",
			len(tenors), len(observed))
	}

	type point struct {
		tenor string
		years float64
		yield float64
	}
	points := make([]point, 0, len(tenors))
	for i, tenor := range tenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return Params{}, FitStats{}, fmt.Errorf("Calibrate: %w", err)
		}
		y := observed[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		years, err := utils.TenorToYears(norm)
		if err != nil {
			return Params{}, FitStats{}, fmt.Errorf("Calibrate: %w", err)
		}
		points = append(points, point{tenor: norm, years: years, yield: y})
	}

	if len(points) < 4 {
		return Params{}, FitStats{}, fmt.Errorf("Calibrate: need at least 4 valid tenor points, got %d", len(points))
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].years < points[j].years
	})

	sortedTenors := make([]string, len(points))
	mats := make([]float64, len(points))
	obs := make([]float64, len(points))
	for i, pt := range points {
		sortedTenors[i] = pt.tenor
		mats[i] = pt.years
		obs[i] = pt.yield
	}

	// Default guess anchors the level to the longest-maturity yield.
	guess := Params{Beta0: obs[len(obs)-1], Beta1: -0.02, Beta2: 0.02, Beta3: 0.01, Tau1: 1.0, Tau2: 3.0}
	lower, upper := defaultBounds()
	var solver Solver = LeastSquares{}
	maxEvals := defaultMaxEvaluations

	if opts != nil {
		if opts.InitialGuess != nil {
			guess = *opts.InitialGuess
		}
		if opts.LowerBounds != nil || opts.UpperBounds != nil {
			if len(opts.LowerBounds) != 6 || len(opts.UpperBounds) != 6 {
				return Params{}, FitStats{}, fmt.Errorf("Calibrate: bounds must both be length-6 slices")
			}
			lower = opts.LowerBounds
			upper = opts.UpperBounds
		}
		if opts.Solver != nil {
			solver = opts.Solver
		}
		if opts.MaxEvaluations > 0 {
			maxEvals = opts.MaxEvaluations
		}
	}

	residuals := func(x []float64) []float64 {
		p := Params{Beta0: x[0], Beta1: x[1], Beta2: x[2], Beta3: x[3], Tau1: x[4], Tau2: x[5]}
		out := make([]float64, len(mats))
		for i, t := range mats {
			y, err := Yield(t, p)
			if err != nil {
				// Bounds keep taus positive; treat a stray invalid point as
				// a large residual rather than aborting the solve.
				out[i] = math.MaxFloat64
				continue
			}
			out[i] = y - obs[i]
		}
		return out
	}

	x, report, err := solver.Solve(Problem{
		Residuals:      residuals,
		X0:             guess.Vector(),
		Lower:          lower,
		Upper:          upper,
		MaxEvaluations: maxEvals,
	})
	if err != nil {
		return Params{}, FitStats{}, fmt.Errorf("Calibrate: %w", err)
	}

	params, err := ParamsFromVector(x)
	if err != nil {
		return Params{}, FitStats{}, fmt.Errorf("Calibrate: %w", err)
	}

	fitted, err := Yields(mats, params)
	if err != nil {
		return Params{}, FitStats{}, fmt.Errorf("Calibrate: %w", err)
	}

	var sumSq, maxAbs float64
	for i := range fitted {
		e := fitted[i] - obs[i]
		sumSq += e * e
		if a := math.Abs(e); a > maxAbs {
			maxAbs = a
		}
	}

	stats := FitStats{
		RMSE:        math.Sqrt(sumSq / float64(len(fitted))),
		MaxAbsError: maxAbs,
		NPoints:     len(fitted),
		Success:     report.Converged,
		Cost:        report.Cost,
		Message:     report.Status,
		Evaluations: report.Evaluations,
		Tenors:      sortedTenors,
		Maturities:  mats,
		Observed:    obs,
		Fitted:      fitted,
	}

	return params, stats, nil
}
