// Package cosinor fits a cosine rhythm model to a sampled measurement and
// derives rhythm metrics from the fit: mesor, peak value, acrophase, mesor
// crossings, onset/offset peak intervals and per-interval area under the
// curve.
package cosinor

import (
	"fmt"
	"math"
)

// Params are the cosine model parameters
type Params struct {
	H float64 `json:"h"` // amplitude; its sign decides crest or trough
	B float64 `json:"b"` // mesor
	V float64 `json:"v"` // phase offset
	P float64 `json:"p"` // period
}

// Slice returns the parameters in solver order (h, b, v, p)
func (p Params) Slice() []float64 {
	return []float64{p.H, p.B, p.V, p.P}
}

// ParamsFromSlice is the inverse of Slice
func ParamsFromSlice(x []float64) Params {
	return Params{H: x[0], B: x[1], V: x[2], P: x[3]}
}

// String formats the parameters the way the text summary prints them
func (p Params) String() string {
	return fmt.Sprintf("h = %.4f, b = %.4f, v = %.4f, p = %.4f", p.H, p.B, p.V, p.P)
}

func (p Params) finite() bool {
	for _, v := range p.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Eval evaluates h·cos(2π(x+v)/p) + b at a single point
func Eval(params Params, x float64) float64 {
	return params.H*math.Cos(2*math.Pi*(x+params.V)/params.P) + params.B
}

// Model evaluates the cosine model element-wise over x
func Model(params Params, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = Eval(params, xi)
	}
	return out
}

// Residuals returns model(params, x) - y
func Residuals(params Params, x, y []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = Eval(params, xi) - y[i]
	}
	return out
}

// jacobianRow fills dst with the partial derivatives of the model at x with
// respect to (h, b, v, p).
func jacobianRow(params Params, x float64, dst []float64) {
	theta := 2 * math.Pi * (x + params.V) / params.P
	sin, cos := math.Sincos(theta)
	dst[0] = cos
	dst[1] = 1
	dst[2] = -params.H * sin * 2 * math.Pi / params.P
	dst[3] = params.H * sin * theta / params.P
}
