package cosinor

import (
	"math"
	"testing"

	"github.com/soltixdb/cosinor/internal/analytics"
)

// Common test data and helpers for all cosinor tests

var testParams = Params{H: 500, B: 150, V: 2, P: 24}

// generateSeries samples model(params) on from, from+step, ... up to to
func generateSeries(params Params, from, to, step float64) analytics.Series {
	var s analytics.Series
	for i := 0; ; i++ {
		t := from + float64(i)*step
		if t > to {
			break
		}
		s.Time = append(s.Time, t)
		s.Data = append(s.Data, Eval(params, t))
	}
	return s
}

// fixedBounds pins every parameter to params
func fixedBounds(params Params) *Bounds {
	return &Bounds{Lower: params, Upper: params}
}

func assertClose(t *testing.T, name string, want, got, tol float64) {
	t.Helper()
	if math.Abs(want-got) > tol {
		t.Errorf("%s: expected %v, got %v (tolerance %v)", name, want, got, tol)
	}
}
