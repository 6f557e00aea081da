package cosinor

import (
	"fmt"
	"math"
	"strings"
)

// LossKind selects the robust loss kernel applied to squared residuals
type LossKind string

const (
	LossLinear LossKind = "linear"
	LossSoftL1 LossKind = "soft_l1"
	LossHuber  LossKind = "huber"
	LossCauchy LossKind = "cauchy"
	LossArctan LossKind = "arctan"
)

// Losses lists the supported kernels
var Losses = []LossKind{LossLinear, LossSoftL1, LossHuber, LossCauchy, LossArctan}

// ParseLoss converts a name into a LossKind. Empty selects linear.
func ParseLoss(name string) (LossKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return LossLinear, nil
	}
	for _, l := range Losses {
		if string(l) == name {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown loss %q (supported: linear, soft_l1, huber, cauchy, arctan)", ErrInvalidInput, name)
}

// rho returns the kernel value and its first two derivatives at z = f².
func (l LossKind) rho(z float64) (r0, r1, r2 float64) {
	switch l {
	case LossSoftL1:
		t := 1 + z
		return 2 * (math.Sqrt(t) - 1), 1 / math.Sqrt(t), -0.5 * math.Pow(t, -1.5)
	case LossHuber:
		if z <= 1 {
			return z, 1, 0
		}
		s := math.Sqrt(z)
		return 2*s - 1, 1 / s, -0.5 / (z * s)
	case LossCauchy:
		t := 1 + z
		return math.Log1p(z), 1 / t, -1 / (t * t)
	case LossArctan:
		t := 1 + z*z
		return math.Atan(z), 1 / t, -2 * z / (t * t)
	default:
		return z, 1, 0
	}
}

// weigh evaluates the kernel on residuals scaled by fScale and returns the
// cost 0.5·Σρ together with the first and second derivatives of ρ for every
// residual, the second one rescaled back to residual units.
func (l LossKind) weigh(f []float64, fScale float64, rho1, rho2 []float64) float64 {
	c2 := fScale * fScale
	cost := 0.0
	for i, fi := range f {
		z := fi * fi / c2
		r0, r1, r2 := l.rho(z)
		cost += r0 * c2
		rho1[i] = r1
		rho2[i] = r2 / c2
	}
	return 0.5 * cost
}
