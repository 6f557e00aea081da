package cosinor

import (
	"context"
	"fmt"
	"strings"

	"github.com/soltixdb/cosinor/internal/analytics"
)

// Result aggregates everything derived from one analysis run. It is built
// once by Analyze and not modified afterwards.
type Result struct {
	Params      Params    `json:"params"`
	Residuals   []float64 `json:"residuals"`
	Status      int       `json:"status"`
	Message     string    `json:"message"`
	Evaluations int       `json:"evaluations"`

	Goodness
	Rhythm
	PeakMarkers []analytics.Point `json:"peak_markers"`

	Crossings  []Crossing     `json:"crossings"`
	MergedTime []float64      `json:"merged_time"`
	MergedData []float64      `json:"merged_data"`
	Directions []Direction    `json:"directions"`
	Intervals  []PeakInterval `json:"intervals"`

	PeakAUC     []float64 `json:"peak_auc"`
	MidpointAUC []float64 `json:"midpoint_auc"`
}

// Analyze fits the cosine model to the series and derives every rhythm
// metric from the fit. Fit errors (ErrInvalidInput, ErrFitFailure) are
// returned unchanged. A series that never crosses its mesor, or crosses it
// only once, is a valid result with empty crossing, interval and AUC lists.
func Analyze(ctx context.Context, series analytics.Series, opts FitOptions) (*Result, error) {
	fit, err := Fit(ctx, series, opts)
	if err != nil {
		return nil, err
	}

	goodness, err := Evaluate(fit.Params, series)
	if err != nil {
		return nil, err
	}

	rhythm := RhythmMetrics(fit.Params)
	crossings := FindCrossings(series, rhythm.Mesor)
	seg := Segment(series, crossings)
	peakAUC, midpointAUC := IntervalAUCs(seg.Intervals)

	return &Result{
		Params:      fit.Params,
		Residuals:   fit.Residuals,
		Status:      fit.Status,
		Message:     fit.Message,
		Evaluations: fit.Evaluations,
		Goodness:    goodness,
		Rhythm:      rhythm,
		PeakMarkers: PeakMarkers(fit.Params, series.MinTime(), series.MaxTime()),
		Crossings:   crossings,
		MergedTime:  seg.MergedTime,
		MergedData:  seg.MergedData,
		Directions:  seg.Directions,
		Intervals:   seg.Intervals,
		PeakAUC:     peakAUC,
		MidpointAUC: midpointAUC,
	}, nil
}

// DefaultCurvePoints is the resolution of the fitted overlay curve
const DefaultCurvePoints = 500

// Curve samples the fitted model on n evenly spaced times in [from, to]
func Curve(params Params, from, to float64, n int) []analytics.Point {
	if n <= 0 {
		return []analytics.Point{}
	}
	if n == 1 {
		return []analytics.Point{{Time: from, Value: Eval(params, from)}}
	}

	points := make([]analytics.Point, n)
	step := (to - from) / float64(n-1)
	for i := range points {
		t := from + float64(i)*step
		if i == n-1 {
			t = to
		}
		points[i] = analytics.Point{Time: t, Value: Eval(params, t)}
	}
	return points
}

// Summary renders the textual annotation shown next to a plot
func Summary(r *Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SS = %.2f\n\n", r.SumOfSquares)
	fmt.Fprintf(&sb, "r(%d) = %.3f,  r^2(%d) = %.3f\n\n", r.DegreesOfFreedom, r.R, r.DegreesOfFreedom, r.R2)
	fmt.Fprintf(&sb, "Peak Coordinates = (%.4f, %.4f)\n\n", r.Acrophase, r.PeakValue)
	fmt.Fprintf(&sb, "Mesor = %.3f  Number of Mesor Crossings = %d\n\n", r.Mesor, len(r.Crossings))
	fmt.Fprintf(&sb, "Times of Mesor Crossings:\n%s\n\n", formatList(CrossingTimes(r.Crossings)))
	fmt.Fprintf(&sb, "On-Off AUC:\n%s\n\n", formatList(r.MidpointAUC))
	sb.WriteString(r.Params.String())
	return sb.String()
}

func formatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
