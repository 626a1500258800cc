package curve

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Problem is a box-constrained nonlinear least-squares problem: find x
// within [Lower, Upper] minimizing the sum of squared residuals.
type Problem struct {
	// Residuals evaluates the residual vector at x.
	Residuals func(x []float64) []float64
	// X0 is the initial guess.
	X0 []float64
	// Lower and Upper are per-coordinate box bounds, same length as X0.
	Lower []float64
	Upper []float64
	// MaxEvaluations caps the number of residual evaluations. Zero means
	// the backend default.
	MaxEvaluations int
}

// Report describes the outcome of a solve. Non-convergence is reported
// here, not as an error, so callers can decide whether to trust the fit.
type Report struct {
	Converged   bool
	Status      string
	Cost        float64 // 0.5 · Σ residual², at the returned point
	Evaluations int
}

// Solver is the injected nonlinear least-squares strategy. Alternative
// backends can be swapped in without touching calibration call sites.
type Solver interface {
	Solve(p Problem) ([]float64, Report, error)
}

// LeastSquares is the default Solver backend. It minimizes the sum of
// squared residuals with gonum's Nelder-Mead simplex, projecting every
// iterate onto the box bounds, then polishes the simplex result with BFGS.
// The polish step is what brings noise-free fits down to numerical zero;
// the simplex alone tends to stop a few basis points short.
type LeastSquares struct{}

const defaultMaxEvaluations = 5000

func (LeastSquares) Solve(p Problem) ([]float64, Report, error) {
	n := len(p.X0)
	if n == 0 {
		return nil, Report{}, fmt.Errorf("LeastSquares.Solve: empty initial guess")
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return nil, Report{}, fmt.Errorf("LeastSquares.Solve: bounds length %d/%d does not match guess length %d",
			len(p.Lower), len(p.Upper), n)
	}
	for i := range p.Lower {
		if p.Lower[i] > p.Upper[i] {
			return nil, Report{}, fmt.Errorf("LeastSquares.Solve: lower bound exceeds upper bound at index %d", i)
		}
	}
	if p.Residuals == nil {
		return nil, Report{}, fmt.Errorf("LeastSquares.Solve: nil residual function")
	}

	maxEvals := p.MaxEvaluations
	if maxEvals <= 0 {
		maxEvals = defaultMaxEvaluations
	}

	project := func(x []float64) []float64 {
		proj := make([]float64, len(x))
		for i := range x {
			proj[i] = math.Max(p.Lower[i], math.Min(p.Upper[i], x[i]))
		}
		return proj
	}

	objective := func(x []float64) float64 {
		r := p.Residuals(project(x))
		var ss float64
		for _, v := range r {
			ss += v * v
		}
		return ss
	}

	problem := optimize.Problem{Func: objective}
	x0 := project(p.X0)

	settings := &optimize.Settings{FuncEvaluations: maxEvals}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})

	evals := 0
	if result != nil {
		evals = result.FuncEvaluations
	}

	// The simplex routinely declares convergence short of the optimum, so
	// always polish with BFGS while budget remains and keep whichever
	// point is better.
	if err == nil && result != nil && evals < maxEvals {
		refineSettings := &optimize.Settings{FuncEvaluations: maxEvals - evals}
		refined, rerr := optimize.Minimize(problem, result.X, refineSettings, &optimize.BFGS{})
		if refined != nil {
			evals += refined.FuncEvaluations
			if refined.F <= result.F {
				// A linesearch giving up at machine precision is not a
				// worse outcome than the simplex point it improved on, so
				// a converged simplex status survives the polish.
				if rerr != nil && converged(result.Status) {
					refined.Status = result.Status
				}
				if rerr == nil || converged(result.Status) {
					result = refined
				}
			}
		}
	}

	if result == nil {
		msg := "solver produced no result"
		if err != nil {
			msg = err.Error()
		}
		return project(p.X0), Report{Converged: false, Status: msg}, nil
	}

	x := project(result.X)
	r := p.Residuals(x)
	var ss float64
	for _, v := range r {
		ss += v * v
	}

	status := result.Status.String()
	if err != nil {
		status = fmt.Sprintf("%s: %v", status, err)
	}

	return x, Report{
		Converged:   err == nil && converged(result.Status),
		Status:      status,
		Cost:        0.5 * ss,
		Evaluations: evals,
	}, nil
}

// converged reports whether an optimize.Status counts as successful
// convergence. Budget exhaustion statuses do not.
func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.FunctionThreshold, optimize.MethodConverge:
		return true
	}
	return false
}
