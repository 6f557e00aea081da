package cosinor

import (
	"math"
	"slices"
	"testing"

	"github.com/soltixdb/cosinor/internal/analytics"
)

func TestFindCrossings_UnitCosine(t *testing.T) {
	unit := Params{H: 1, B: 0, V: 0, P: 24}
	series := generateSeries(unit, 0.1, 48, 0.5)

	crossings := FindCrossings(series, 0)
	if len(crossings) != 4 {
		t.Fatalf("Expected 4 crossings over two periods, got %d", len(crossings))
	}

	want := []float64{6, 18, 30, 42}
	for i, c := range crossings {
		assertClose(t, "crossing time", want[i], c.Time, 1e-3)
		if c.Value != 0 {
			t.Errorf("crossing %d: expected value 0, got %v", i, c.Value)
		}
		if series.Time[c.Index] > c.Time || series.Time[c.Index+1] < c.Time {
			t.Errorf("crossing %d at %v not bracketed by samples %d and %d", i, c.Time, c.Index, c.Index+1)
		}
	}

	dirs := Classify(series, crossings)
	for i, d := range dirs {
		expected := Offset
		if i%2 == 1 {
			expected = Onset
		}
		if d != expected {
			t.Errorf("crossing %d: expected %s, got %s", i, expected, d)
		}
	}
}

func TestFindCrossings_PhaseShiftStartsWithOnset(t *testing.T) {
	shifted := Params{H: 1, B: 0, V: 12, P: 24}
	series := generateSeries(shifted, 0.1, 48, 0.5)

	crossings := FindCrossings(series, 0)
	if len(crossings) != 4 {
		t.Fatalf("Expected 4 crossings, got %d", len(crossings))
	}
	if dirs := Classify(series, crossings); dirs[0] != Onset {
		t.Errorf("Expected first crossing to be an onset, got %s", dirs[0])
	}
}

func TestFindCrossings_Linear(t *testing.T) {
	series := analytics.Series{
		Time: []float64{0, 2, 4},
		Data: []float64{-1, 3, -5},
	}

	crossings := FindCrossings(series, 0)
	if len(crossings) != 2 {
		t.Fatalf("Expected 2 crossings, got %d", len(crossings))
	}
	assertClose(t, "rising", 0.5, crossings[0].Time, 1e-12)
	assertClose(t, "falling", 2.75, crossings[1].Time, 1e-12)
}

func TestFindCrossings_TouchingMesor(t *testing.T) {
	// a sample exactly on the mesor changes sign on both sides
	series := analytics.Series{
		Time: []float64{0, 1, 2},
		Data: []float64{1, 0, 1},
	}

	crossings := FindCrossings(series, 0)
	if len(crossings) != 2 {
		t.Fatalf("Expected 2 crossings, got %d", len(crossings))
	}
	for _, c := range crossings {
		assertClose(t, "touch time", 1, c.Time, 1e-12)
	}
}

func TestFindCrossings_PassingThroughMesor(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		times []float64
		dirs  []Direction
	}{
		{"single sample on mesor", []float64{-1, 0, 1, -1, 1}, []float64{1, 2.5, 3.5}, []Direction{Onset, Offset, Onset}},
		{"run on mesor", []float64{-1, 0, 0, 2}, []float64{1}, []Direction{Onset}},
		{"falling through", []float64{2, 0, -2}, []float64{1}, []Direction{Offset}},
		{"touch and return", []float64{1, 0, 0, 1}, []float64{1, 2}, []Direction{Offset, Onset}},
		{"ends on mesor", []float64{-1, 1, 0}, []float64{0.5, 2}, []Direction{Onset, Offset}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := analytics.Series{Data: tt.data}
			for i := range tt.data {
				series.Time = append(series.Time, float64(i))
			}

			crossings := FindCrossings(series, 0)
			if len(crossings) != len(tt.times) {
				t.Fatalf("Expected %d crossings, got %v", len(tt.times), CrossingTimes(crossings))
			}
			for i, c := range crossings {
				assertClose(t, "crossing time", tt.times[i], c.Time, 1e-12)
			}
			dirs := Classify(series, crossings)
			if !slices.Equal(dirs, tt.dirs) {
				t.Errorf("Expected directions %v, got %v", tt.dirs, dirs)
			}
		})
	}
}

func TestFindCrossings_None(t *testing.T) {
	series := generateSeries(testParams, 0, 48, 0.5)

	crossings := FindCrossings(series, -1000)
	if crossings == nil || len(crossings) != 0 {
		t.Errorf("Expected empty non-nil crossings, got %v", crossings)
	}
	if times := CrossingTimes(crossings); len(times) != 0 {
		t.Errorf("Expected no times, got %v", times)
	}
}

func TestInterpolate(t *testing.T) {
	assertClose(t, "midpoint", 1.5, interpolate(1, -1, 2, 1, 0), 1e-12)
	assertClose(t, "equal times", 3, interpolate(3, -1, 3, 1, 0), 0)
	if got := interpolate(0, 0, 1, 2, 1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Expected 0.5, got %v", got)
	}
}

func TestSign(t *testing.T) {
	if sign(2) != 1 || sign(-0.1) != -1 || sign(0) != 0 {
		t.Errorf("Unexpected sign results: %d %d %d", sign(2), sign(-0.1), sign(0))
	}
}
