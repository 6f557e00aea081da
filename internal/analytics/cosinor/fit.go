package cosinor

import (
	"context"
	"fmt"
	"math"

	"github.com/soltixdb/cosinor/internal/analytics"
)

// DefaultMaxEvaluations is effectively unbounded but keeps every solve finite
const DefaultMaxEvaluations = 1000000000

// DefaultGuess is the initial (h, b, v, p) used when none is supplied
var DefaultGuess = Params{H: 700, B: 200, V: 0, P: 24}

// Bounds are per-parameter box constraints
type Bounds struct {
	Lower Params `json:"lower"`
	Upper Params `json:"upper"`
}

// Unbounded returns ±Inf on every parameter
func Unbounded() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Lower: Params{H: -inf, B: -inf, V: -inf, P: -inf},
		Upper: Params{H: inf, B: inf, V: inf, P: inf},
	}
}

// Validate checks lower <= upper for every parameter and rejects a period
// box that only admits zero.
func (b Bounds) Validate() error {
	lo, hi := b.Lower.Slice(), b.Upper.Slice()
	names := [...]string{"h", "b", "v", "p"}
	for i := range lo {
		if math.IsNaN(lo[i]) || math.IsNaN(hi[i]) {
			return invalidInput("bound for %s is NaN", names[i])
		}
		if lo[i] > hi[i] {
			return invalidInput("lower bound %g for %s exceeds upper bound %g", lo[i], names[i], hi[i])
		}
	}
	if b.Lower.P == 0 && b.Upper.P == 0 {
		return invalidInput("period bounds only admit p = 0")
	}
	return nil
}

// Contains reports whether p lies inside the box. NaN is never inside.
func (b Bounds) Contains(p Params) bool {
	lo, hi, v := b.Lower.Slice(), b.Upper.Slice(), p.Slice()
	for i := range v {
		if !(v[i] >= lo[i] && v[i] <= hi[i]) {
			return false
		}
	}
	return true
}

// FitOptions configures a fit. The zero value of every field selects its
// default.
type FitOptions struct {
	Guess          *Params
	Loss           LossKind
	Bounds         *Bounds
	MaxEvaluations int
	FScale         float64
	Tolerances     Tolerances
}

// DefaultFitOptions returns the guess (700, 200, 0, 24), the linear loss, no
// bounds and the large evaluation sentinel.
func DefaultFitOptions() FitOptions {
	guess := DefaultGuess
	bounds := Unbounded()
	return FitOptions{
		Guess:          &guess,
		Loss:           LossLinear,
		Bounds:         &bounds,
		MaxEvaluations: DefaultMaxEvaluations,
		FScale:         1,
		Tolerances:     DefaultTolerances(),
	}
}

// withDefaults fills zero fields and validates the result
func (o FitOptions) withDefaults() (FitOptions, error) {
	def := DefaultFitOptions()
	if o.Guess == nil {
		o.Guess = def.Guess
	}
	if o.Bounds == nil {
		o.Bounds = def.Bounds
	}
	if o.Loss == "" {
		o.Loss = def.Loss
	}
	if o.MaxEvaluations == 0 {
		o.MaxEvaluations = def.MaxEvaluations
	}
	if o.FScale == 0 {
		o.FScale = def.FScale
	}
	if o.Tolerances.FTol == 0 {
		o.Tolerances.FTol = def.Tolerances.FTol
	}
	if o.Tolerances.XTol == 0 {
		o.Tolerances.XTol = def.Tolerances.XTol
	}
	if o.Tolerances.GTol == 0 {
		o.Tolerances.GTol = def.Tolerances.GTol
	}

	if _, err := ParseLoss(string(o.Loss)); err != nil {
		return o, err
	}
	if o.MaxEvaluations < 0 {
		return o, invalidInput("max evaluations must be positive, got %d", o.MaxEvaluations)
	}
	if o.FScale < 0 || math.IsNaN(o.FScale) || math.IsInf(o.FScale, 0) {
		return o, invalidInput("loss scale must be a positive finite number, got %g", o.FScale)
	}
	if !o.Guess.finite() {
		return o, invalidInput("initial guess must be finite: %s", o.Guess)
	}
	if o.Guess.P == 0 {
		return o, invalidInput("initial guess period must not be zero")
	}
	if err := o.Bounds.Validate(); err != nil {
		return o, err
	}

	start := o.Guess.Slice()
	project(start, o.Bounds.Lower.Slice(), o.Bounds.Upper.Slice())
	if start[3] == 0 {
		return o, invalidInput("initial period projects to zero inside the bounds")
	}
	return o, nil
}

// FitResult is the solved model of one fit
type FitResult struct {
	Params      Params    `json:"params"`
	Residuals   []float64 `json:"residuals"`
	Cost        float64   `json:"cost"`
	Success     bool      `json:"success"`
	Status      int       `json:"status"`
	Message     string    `json:"message"`
	Evaluations int       `json:"evaluations"`
}

// Fit solves for (h, b, v, p) minimising the (robust) sum of squared
// residuals of the cosine model inside the box constraints.
//
// The solver is a local method: for identical inputs it is deterministic,
// but the solution depends on the initial guess and a poor guess may settle
// in a different local minimum (for example a period harmonic). No global
// search is attempted.
//
// A solver that does not report convergence, or a solution outside the
// bounds, yields a *FitError wrapping ErrFitFailure and no result.
func Fit(ctx context.Context, series analytics.Series, opts FitOptions) (*FitResult, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	pr := &problem{
		x:       series.Time,
		y:       series.Data,
		lower:   opts.Bounds.Lower.Slice(),
		upper:   opts.Bounds.Upper.Slice(),
		loss:    opts.Loss,
		fScale:  opts.FScale,
		maxEval: opts.MaxEvaluations,
		tol:     opts.Tolerances,
	}

	sol := solve(ctx, pr, opts.Guess.Slice())
	if !sol.success() {
		return nil, &FitError{
			Status:      sol.status,
			Message:     StatusMessage(sol.status),
			Evaluations: sol.nfev,
		}
	}

	params := ParamsFromSlice(sol.x)
	if !opts.Bounds.Contains(params) {
		return nil, &FitError{
			Status:      sol.status,
			Message:     fmt.Sprintf("solution %v left the bounds", sol.x),
			Evaluations: sol.nfev,
		}
	}

	return &FitResult{
		Params:      params,
		Residuals:   sol.residuals,
		Cost:        sol.cost,
		Success:     true,
		Status:      sol.status,
		Message:     StatusMessage(sol.status),
		Evaluations: sol.nfev,
	}, nil
}
