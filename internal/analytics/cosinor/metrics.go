package cosinor

import (
	"math"

	"github.com/soltixdb/cosinor/internal/analytics"
)

// Rhythm holds the scalar rhythm metrics derived from a fit
type Rhythm struct {
	Mesor     float64 `json:"mesor"`
	PeakValue float64 `json:"peak_value"`
	Acrophase float64 `json:"acrophase"`
}

// Mesor is the vertical offset b
func Mesor(params Params) float64 {
	return params.B
}

// PeakValue is b + h
func PeakValue(params Params) float64 {
	return params.B + params.H
}

// Acrophase expresses the phase offset as a non-negative time to peak:
// |v| + p when v is negative, p - v otherwise.
func Acrophase(params Params) float64 {
	if params.V < 0 {
		return math.Abs(params.V) + params.P
	}
	return params.P - params.V
}

// RhythmMetrics derives mesor, peak value and acrophase
func RhythmMetrics(params Params) Rhythm {
	return Rhythm{
		Mesor:     Mesor(params),
		PeakValue: PeakValue(params),
		Acrophase: Acrophase(params),
	}
}

// maxPeakMarkers caps the marker list for degenerate, vanishingly small periods
const maxPeakMarkers = 100000

// PeakMarkers repeats the acrophase coordinate once per period over
// [minTime, maxTime], both included. An acrophase before minTime is moved
// forward by whole periods. The result is empty when no marker falls in the
// window and holds at most maxPeakMarkers points.
func PeakMarkers(params Params, minTime, maxTime float64) []analytics.Point {
	markers := []analytics.Point{}
	step := math.Abs(params.P)
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return markers
	}

	peak := PeakValue(params)
	start := Acrophase(params)
	if start < minTime {
		start += math.Ceil((minTime-start)/step) * step
	}
	for k := 0; k < maxPeakMarkers; k++ {
		t := start + float64(k)*step
		if t > maxTime {
			break
		}
		markers = append(markers, analytics.Point{Time: t, Value: peak})
	}
	return markers
}
