// Command curvefit calibrates a Nelson-Siegel-Svensson curve to observed
// par yields supplied as JSON and prints the fitted parameters, the fit
// diagnostics and an optional evaluation grid.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inigomace/fixed-income-risk-toolkit/curve"
)

type fitInput struct {
	TaskID string `json:"task_id,omitempty"`
	// Tenors are labels like "3M" or "10Y"; Yields are decimals.
	Tenors []string  `json:"tenors"`
	Yields []float64 `json:"yields"`
	// InitialGuess optionally seeds the solver with [b0,b1,b2,b3,tau1,tau2].
	InitialGuess []float64 `json:"initial_guess,omitempty"`
	// GridTenors requests fitted yields and discount factors at extra
	// maturities (in years).
	GridTenors []float64 `json:"grid_tenors,omitempty"`
}

type fitOutput struct {
	TaskID          string    `json:"task_id,omitempty"`
	Params          []float64 `json:"params"`
	RMSE            float64   `json:"rmse"`
	MaxAbsError     float64   `json:"max_abs_error"`
	Converged       bool      `json:"converged"`
	Message         string    `json:"message,omitempty"`
	Evaluations     int       `json:"evaluations"`
	FittedYields    []float64 `json:"fitted_yields"`
	GridYields      []float64 `json:"grid_yields,omitempty"`
	GridDiscounts   []float64 `json:"grid_discounts,omitempty"`
	Error           string    `json:"error,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: curvefit -input <path>")
		fmt.Fprintln(os.Stderr, "Fit an NSS yield curve to observed par yields.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: curvefit -input <path>")
			os.Exit(2)
		}
	}

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}

	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	hadError := false
	outputs := make([]fitOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := process(in)
		if err != nil {
			hadError = true
			outputs = append(outputs, fitOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		outputs = append(outputs, *out)
	}

	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Println(string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Println(string(b))
	}

	if hadError {
		os.Exit(1)
	}
}

func process(in fitInput) (*fitOutput, error) {
	opts := &curve.CalibrationOptions{}
	if in.InitialGuess != nil {
		if len(in.InitialGuess) != 6 {
			return nil, fmt.Errorf("initial_guess must have 6 entries, got %d", len(in.InitialGuess))
		}
		p, err := curve.ParamsFromVector(in.InitialGuess)
		if err != nil {
			return nil, fmt.Errorf("invalid initial_guess: %v", err)
		}
		opts.InitialGuess = &p
	}

	params, stats, err := curve.Calibrate(in.Tenors, in.Yields, opts)
	if err != nil {
		return nil, err
	}

	out := &fitOutput{
		TaskID:       in.TaskID,
		Params:       params.Vector(),
		RMSE:         stats.RMSE,
		MaxAbsError:  stats.MaxAbsError,
		Converged:    stats.Success,
		Message:      stats.Message,
		Evaluations:  stats.Evaluations,
		FittedYields: stats.Fitted,
	}

	if len(in.GridTenors) > 0 {
		c, err := curve.New(params)
		if err != nil {
			return nil, err
		}
		out.GridYields = make([]float64, 0, len(in.GridTenors))
		out.GridDiscounts = make([]float64, 0, len(in.GridTenors))
		for _, t := range in.GridTenors {
			y, err := c.YieldAt(t)
			if err != nil {
				return nil, fmt.Errorf("grid tenor %v: %v", t, err)
			}
			df, err := c.DiscountFactor(t)
			if err != nil {
				return nil, fmt.Errorf("grid tenor %v: %v", t, err)
			}
			out.GridYields = append(out.GridYields, y)
			out.GridDiscounts = append(out.GridDiscounts, df)
		}
	}

	return out, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func parseInputs(raw []byte) ([]fitInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []fitInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, false, err
		}
		if len(inputs) == 0 {
			return nil, false, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var in fitInput
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, false, err
	}
	return []fitInput{in}, false, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(fitOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
