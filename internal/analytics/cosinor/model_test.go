package cosinor

import (
	"math"
	"testing"
)

func TestEval_KnownPoints(t *testing.T) {
	p := Params{H: 2, B: 10, V: 0, P: 24}

	assertClose(t, "crest", 12, Eval(p, 0), 1e-12)
	assertClose(t, "mesor", 10, Eval(p, 6), 1e-12)
	assertClose(t, "trough", 8, Eval(p, 12), 1e-12)
	assertClose(t, "next crest", 12, Eval(p, 24), 1e-12)

	shifted := Params{H: 2, B: 10, V: 6, P: 24}
	assertClose(t, "phase shift", 10, Eval(shifted, 0), 1e-12)
}

func TestModel_Vectorized(t *testing.T) {
	x := []float64{0, 3, 6, 9, 12}
	out := Model(testParams, x)
	if len(out) != len(x) {
		t.Fatalf("Expected %d values, got %d", len(x), len(out))
	}
	for i := range x {
		assertClose(t, "element", Eval(testParams, x[i]), out[i], 0)
	}
}

func TestResiduals_ZeroOnModelData(t *testing.T) {
	s := generateSeries(testParams, 0, 48, 0.5)
	for i, r := range Residuals(testParams, s.Time, s.Data) {
		if r != 0 {
			t.Fatalf("residual %d: expected 0, got %v", i, r)
		}
	}

	off := testParams
	off.B += 3
	for _, r := range Residuals(off, s.Time, s.Data) {
		assertClose(t, "offset residual", 3, r, 1e-9)
	}
}

func TestJacobianRow_MatchesFiniteDifferences(t *testing.T) {
	row := make([]float64, 4)
	for _, x := range []float64{0, 1.3, 7.7, 30} {
		jacobianRow(testParams, x, row)
		base := testParams.Slice()
		for j := range base {
			h := 1e-6 * math.Max(1, math.Abs(base[j]))
			plus := append([]float64(nil), base...)
			minus := append([]float64(nil), base...)
			plus[j] += h
			minus[j] -= h
			numeric := (Eval(ParamsFromSlice(plus), x) - Eval(ParamsFromSlice(minus), x)) / (2 * h)
			assertClose(t, "derivative", numeric, row[j], 1e-4*math.Max(1, math.Abs(numeric)))
		}
	}
}

func TestParams_SliceRoundTrip(t *testing.T) {
	got := ParamsFromSlice(testParams.Slice())
	if got != testParams {
		t.Errorf("Expected %+v, got %+v", testParams, got)
	}
	if testParams.String() != "h = 500.0000, b = 150.0000, v = 2.0000, p = 24.0000" {
		t.Errorf("Unexpected format: %s", testParams.String())
	}
}
