package cosinor

// PeakAUC is the approximate area estimate over one interval: a first/last
// duration-amplitude term plus an evenly spaced per-point term. It assumes
// equal spacing between points and is kept for comparison with MidpointAUC,
// which should be preferred for reporting. Intervals with fewer than two
// points, or a zero denominator in the first/last term, contribute zero for
// that term.
func PeakAUC(time, data []float64) float64 {
	n := len(time)
	if n < 2 || len(data) != n {
		return 0
	}

	first, last := data[0], data[n-1]
	duration := time[n-1] - time[0]

	firstLast := 0.0
	if denom := float64(2*(n-1)) * (first + last); denom != 0 {
		firstLast = duration / denom
	}

	width := duration / float64(2*(n-1))
	total := 0.0
	for _, y := range data {
		if y != first || y != last {
			total += width * 2 * y
		}
	}
	return total + firstLast
}

// MidpointAUC integrates the piecewise linear interpolation of the points:
// Σ (t[i+1]-t[i]) · (y[i]+y[i+1]) / 2.
func MidpointAUC(time, data []float64) float64 {
	total := 0.0
	for i := 0; i+1 < len(time) && i+1 < len(data); i++ {
		total += (time[i+1] - time[i]) * ((data[i] + data[i+1]) / 2)
	}
	return total
}

// IntervalAUCs computes both estimates for every interval
func IntervalAUCs(intervals []PeakInterval) (peak, midpoint []float64) {
	peak = make([]float64, len(intervals))
	midpoint = make([]float64, len(intervals))
	for i, iv := range intervals {
		peak[i] = PeakAUC(iv.Time, iv.Data)
		midpoint[i] = MidpointAUC(iv.Time, iv.Data)
	}
	return peak, midpoint
}
