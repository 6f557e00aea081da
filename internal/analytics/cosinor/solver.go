package cosinor

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Solver termination statuses. Positive values mean convergence.
const (
	StatusCancelled      = -2
	StatusSingular       = -1
	StatusMaxEvaluations = 0
	StatusGTol           = 1
	StatusFTol           = 2
	StatusXTol           = 3
	StatusFXTol          = 4
)

var statusMessages = map[int]string{
	StatusCancelled:      "The fit was cancelled before convergence.",
	StatusSingular:       "The linearized system could not be solved.",
	StatusMaxEvaluations: "The maximum number of function evaluations is exceeded.",
	StatusGTol:           "`gtol` termination condition is satisfied.",
	StatusFTol:           "`ftol` termination condition is satisfied.",
	StatusXTol:           "`xtol` termination condition is satisfied.",
	StatusFXTol:          "Both `ftol` and `xtol` termination conditions are satisfied.",
}

// StatusMessage returns the diagnostic text of a solver status
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Unknown solver status."
}

// Tolerances are the solver termination thresholds
type Tolerances struct {
	FTol float64 `json:"ftol"` // relative cost reduction
	XTol float64 `json:"xtol"` // relative step size
	GTol float64 `json:"gtol"` // projected gradient norm
}

// DefaultTolerances returns 1e-8 for all three thresholds
func DefaultTolerances() Tolerances {
	return Tolerances{FTol: 1e-8, XTol: 1e-8, GTol: 1e-8}
}

const (
	robustScaleEps = 2.220446049250313e-16
	maxDamping     = 1e300
	noStatus       = math.MinInt32
)

type problem struct {
	x, y         []float64
	lower, upper []float64
	loss         LossKind
	fScale       float64
	maxEval      int
	tol          Tolerances
}

type solution struct {
	x         []float64
	residuals []float64
	cost      float64
	status    int
	nfev      int
}

func (s solution) success() bool {
	return s.status > 0
}

// solve runs a bounded Levenberg-Marquardt iteration. Iterates are kept
// inside the box by projection; variables sitting on a bound with the
// gradient pointing outward are frozen for the step.
func solve(ctx context.Context, pr *problem, x0 []float64) solution {
	n := len(pr.x)
	m := len(x0)

	x := append([]float64(nil), x0...)
	project(x, pr.lower, pr.upper)

	f := make([]float64, n)
	rho1 := make([]float64, n)
	rho2 := make([]float64, n)
	fNew := make([]float64, n)
	rho1New := make([]float64, n)
	rho2New := make([]float64, n)
	fScaled := make([]float64, n)

	nfev := 0
	evaluate := func(p, dst, r1, r2 []float64) float64 {
		nfev++
		params := ParamsFromSlice(p)
		for i := range pr.x {
			dst[i] = Eval(params, pr.x[i]) - pr.y[i]
		}
		return pr.loss.weigh(dst, pr.fScale, r1, r2)
	}

	cost := evaluate(x, f, rho1, rho2)

	J := mat.NewDense(n, m, nil)
	A := mat.NewSymDense(m, nil)
	row := make([]float64, m)
	g := make([]float64, m)
	step := make([]float64, m)
	trial := make([]float64, m)
	active := make([]bool, m)

	mu := 1e-3
	nu := 2.0
	status := noStatus

outer:
	for {
		if ctx.Err() != nil {
			status = StatusCancelled
			break
		}

		params := ParamsFromSlice(x)
		for i := 0; i < n; i++ {
			jacobianRow(params, pr.x[i], row)
			scale := rho1[i] + 2*rho2[i]*f[i]*f[i]
			if scale < robustScaleEps {
				scale = robustScaleEps
			}
			scale = math.Sqrt(scale)
			fScaled[i] = f[i] * rho1[i] / scale
			for j := 0; j < m; j++ {
				J.Set(i, j, row[j]*scale)
			}
		}

		gv := mat.NewVecDense(m, g)
		gv.MulVec(J.T(), mat.NewVecDense(n, fScaled))
		A.SymOuterK(1, J.T())

		gNorm := 0.0
		for j := 0; j < m; j++ {
			active[j] = (x[j] <= pr.lower[j] && g[j] > 0) || (x[j] >= pr.upper[j] && g[j] < 0)
			if !active[j] {
				gNorm = math.Max(gNorm, math.Abs(g[j]))
			}
		}
		if gNorm < pr.tol.GTol {
			status = StatusGTol
			break
		}

		for {
			if nfev >= pr.maxEval {
				status = StatusMaxEvaluations
				break outer
			}
			if mu > maxDamping {
				status = StatusSingular
				break outer
			}
			if !dampedStep(A, g, active, mu, step) {
				mu *= nu
				nu *= 2
				continue
			}

			for j := range trial {
				trial[j] = x[j] + step[j]
			}
			project(trial, pr.lower, pr.upper)
			for j := range step {
				step[j] = trial[j] - x[j]
			}

			newCost := evaluate(trial, fNew, rho1New, rho2New)
			stepNorm := floats.Norm(step, 2)
			xtolOK := stepNorm < pr.tol.XTol*(pr.tol.XTol+floats.Norm(x, 2))

			if newCost < cost {
				actual := cost - newCost
				predicted := -(floats.Dot(g, step) + 0.5*mat.Inner(mat.NewVecDense(m, step), A, mat.NewVecDense(m, step)))
				ratio := 0.0
				if predicted > 0 {
					ratio = actual / predicted
				}
				ftolOK := actual < pr.tol.FTol*cost && ratio > 0.25

				copy(x, trial)
				f, fNew = fNew, f
				rho1, rho1New = rho1New, rho1
				rho2, rho2New = rho2New, rho2
				cost = newCost

				mu *= math.Max(1.0/3, 1-math.Pow(2*ratio-1, 3))
				nu = 2

				switch {
				case ftolOK && xtolOK:
					status = StatusFXTol
				case ftolOK:
					status = StatusFTol
				case xtolOK:
					status = StatusXTol
				}
				if status != noStatus {
					break outer
				}
				break
			}

			mu *= nu
			nu *= 2
			if xtolOK {
				status = StatusXTol
				break outer
			}
		}
	}

	return solution{
		x:         x,
		residuals: append([]float64(nil), f...),
		cost:      cost,
		status:    status,
		nfev:      nfev,
	}
}

// dampedStep solves (A + mu·diag(A)) step = -g with frozen variables pinned
// to a zero step.
func dampedStep(A *mat.SymDense, g []float64, active []bool, mu float64, step []float64) bool {
	m := len(g)

	maxDiag := 0.0
	for j := 0; j < m; j++ {
		maxDiag = math.Max(maxDiag, A.At(j, j))
	}
	floor := 1e-12 * maxDiag
	if floor == 0 {
		floor = 1e-12
	}

	M := mat.NewSymDense(m, nil)
	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		if active[i] {
			M.SetSym(i, i, 1)
			continue
		}
		for j := i; j < m; j++ {
			if active[j] {
				continue
			}
			M.SetSym(i, j, A.At(i, j))
		}
		M.SetSym(i, i, A.At(i, i)+mu*math.Max(A.At(i, i), floor))
		rhs.SetVec(i, -g[i])
	}

	dst := mat.NewVecDense(m, step)
	var chol mat.Cholesky
	if chol.Factorize(M) {
		if err := chol.SolveVecTo(dst, rhs); usable(err) && allFinite(step) {
			return true
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(M, rhs); !usable(err) {
		return false
	}
	copy(step, sol.RawVector().Data)
	return allFinite(step)
}

// usable accepts nil and ill-conditioning warnings
func usable(err error) bool {
	if err == nil {
		return true
	}
	var cond mat.Condition
	return errors.As(err, &cond)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func project(x, lower, upper []float64) {
	for i := range x {
		if x[i] < lower[i] {
			x[i] = lower[i]
		}
		if x[i] > upper[i] {
			x[i] = upper[i]
		}
	}
}
