package cosinor

import (
	"fmt"

	"github.com/soltixdb/cosinor/internal/analytics"
	"gonum.org/v1/gonum/stat"
)

// Pearson returns the linear correlation coefficient of x and y: the
// mean-centred covariance over the product of the standard deviations.
// When either side has no variation the coefficient is undefined and 0 is
// returned; see Flat.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: x has %d values, y has %d", ErrInsufficientData, len(x), len(y))
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 pairs, have %d", ErrInsufficientData, len(x))
	}
	if Flat(x, y) {
		return 0, nil
	}
	return stat.Correlation(x, y, nil), nil
}

// Flat reports whether x or y has zero variance
func Flat(x, y []float64) bool {
	return stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0
}

// SumOfSquares returns Σ(model(params, time) - data)²
func SumOfSquares(params Params, series analytics.Series) float64 {
	ss := 0.0
	for i, t := range series.Time {
		d := Eval(params, t) - series.Data[i]
		ss += d * d
	}
	return ss
}

// Goodness holds the fit quality statistics
type Goodness struct {
	R                float64 `json:"r"`
	R2               float64 `json:"r2"`
	SumOfSquares     float64 `json:"ss"`
	DegreesOfFreedom int     `json:"df"`
	Flat             bool    `json:"flat"` // r and r2 are 0 because model or data is constant
}

// Evaluate correlates the fitted curve with the data at the sample times
func Evaluate(params Params, series analytics.Series) (Goodness, error) {
	model := Model(params, series.Time)
	r, err := Pearson(model, series.Data)
	if err != nil {
		return Goodness{}, err
	}
	return Goodness{
		R:                r,
		R2:               r * r,
		SumOfSquares:     SumOfSquares(params, series),
		DegreesOfFreedom: series.Len() - 2,
		Flat:             Flat(model, series.Data),
	}, nil
}
