package cosinor

import (
	"github.com/soltixdb/cosinor/internal/analytics"
)

// Crossing is a point where the sampled series passes through the mesor
type Crossing struct {
	Time  float64 `json:"time"`  // interpolated crossing time
	Value float64 `json:"value"` // always the mesor
	Index int     `json:"index"` // sample immediately preceding the crossing
}

// FindCrossings returns every mesor crossing of the series in time order.
//
// A crossing is reported between samples i and i+1 whenever the sign of
// data - mesor differs between them. The crossing time is interpolated on
// the straight line through the two samples, not on the fitted curve.
//
// Samples lying exactly on the mesor have sign zero. When the series passes
// through such a run to the opposite side, a single crossing is reported at
// the first on-mesor sample. When it returns to the side it came from, the
// run is bounded by two crossings of opposite direction.
func FindCrossings(series analytics.Series, mesor float64) []Crossing {
	crossings := []Crossing{}
	n := series.Len()
	for i := 0; i+1 < n; i++ {
		s0, s1 := sign(series.Data[i]-mesor), sign(series.Data[i+1]-mesor)
		if s0 == s1 {
			continue
		}
		crossings = append(crossings, Crossing{
			Time:  interpolate(series.Time[i], series.Data[i], series.Time[i+1], series.Data[i+1], mesor),
			Value: mesor,
			Index: i,
		})
		if s0 == 0 || s1 != 0 {
			continue
		}
		j := i + 1
		for j+1 < n && sign(series.Data[j+1]-mesor) == 0 {
			j++
		}
		if j+1 < n && sign(series.Data[j+1]-mesor) == -s0 {
			// passing through: the exit from the run is the same crossing
			i = j
		}
	}
	return crossings
}

// CrossingTimes extracts the interpolated times
func CrossingTimes(crossings []Crossing) []float64 {
	times := make([]float64, len(crossings))
	for i, c := range crossings {
		times[i] = c.Time
	}
	return times
}

// interpolate solves the line through (t0, y0) and (t1, y1) for the time at
// which it reaches level. y0 != y1 is guaranteed by the sign change.
func interpolate(t0, y0, t1, y1, level float64) float64 {
	if t1 == t0 {
		return t0
	}
	return t0 + (level-y0)*(t1-t0)/(y1-y0)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
