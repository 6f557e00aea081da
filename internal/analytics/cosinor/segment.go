package cosinor

import (
	"cmp"
	"slices"

	"github.com/soltixdb/cosinor/internal/analytics"
)

// Direction tells whether the series rises or falls through the mesor
type Direction int

const (
	Onset Direction = iota
	Offset
)

func (d Direction) String() string {
	if d == Onset {
		return "onset"
	}
	return "offset"
}

// MarshalText encodes the direction as "onset" or "offset"
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// PeakInterval is the stretch of the merged series between an onset
// crossing and the following offset crossing, both included.
type PeakInterval struct {
	Onset  Crossing  `json:"onset"`
	Offset Crossing  `json:"offset"`
	Time   []float64 `json:"time"`
	Data   []float64 `json:"data"`
}

// Segmentation is the outcome of cycle segmentation
type Segmentation struct {
	MergedTime []float64      `json:"merged_time"`
	MergedData []float64      `json:"merged_data"`
	Positions  []int          `json:"positions"`  // merged index of every crossing
	Directions []Direction    `json:"directions"` // direction of every crossing
	Used       []int          `json:"used"`       // crossings kept after trimming
	Intervals  []PeakInterval `json:"intervals"`
}

type mergedPoint struct {
	time, value float64
	crossing    int
}

// Classify returns the direction of each crossing. A crossing is an onset
// when the sample after it is higher than the sample before it. Crossings
// from FindCrossings alternate in direction.
func Classify(series analytics.Series, crossings []Crossing) []Direction {
	dirs := make([]Direction, len(crossings))
	for k, c := range crossings {
		if series.Data[c.Index+1] > series.Data[c.Index] {
			dirs[k] = Onset
		} else {
			dirs[k] = Offset
		}
	}
	return dirs
}

// Merge interleaves samples and crossing points in time order. Points with
// equal times are ordered by value. It returns the merged coordinates and
// the merged position of each crossing.
func Merge(series analytics.Series, crossings []Crossing) (time, data []float64, positions []int) {
	points := make([]mergedPoint, 0, series.Len()+len(crossings))
	for i := range series.Time {
		points = append(points, mergedPoint{time: series.Time[i], value: series.Data[i], crossing: -1})
	}
	for k, c := range crossings {
		points = append(points, mergedPoint{time: c.Time, value: c.Value, crossing: k})
	}
	slices.SortStableFunc(points, func(a, b mergedPoint) int {
		if c := cmp.Compare(a.time, b.time); c != 0 {
			return c
		}
		return cmp.Compare(a.value, b.value)
	})

	time = make([]float64, len(points))
	data = make([]float64, len(points))
	positions = make([]int, len(crossings))
	for i, p := range points {
		time[i] = p.time
		data[i] = p.value
		if p.crossing >= 0 {
			positions[p.crossing] = i
		}
	}
	return time, data, positions
}

// PairCrossings trims unmatched crossings and returns the indices of the
// crossings to pair as (used[0], used[1]), (used[2], used[3]), ...
//
//   - first crossing an onset, even count: pair everything
//   - first crossing an onset, odd count: drop the trailing crossing
//   - first crossing an offset: drop it, then drop the trailing crossing if
//     the remainder is odd
//
// Fewer than two remaining crossings yield no pairs.
func PairCrossings(dirs []Direction) []int {
	used := make([]int, len(dirs))
	for i := range used {
		used[i] = i
	}
	if len(used) < 2 {
		return []int{}
	}

	if dirs[0] == Offset {
		used = used[1:]
	}
	if len(used)%2 != 0 {
		used = used[:len(used)-1]
	}
	if len(used) < 2 {
		return []int{}
	}
	return used
}

// Segment merges crossings into the series, classifies them and cuts the
// merged series into onset-to-offset peak intervals. No crossings, or too
// few after trimming, give an empty interval list. A pair that does not run
// from an onset to an offset is skipped.
func Segment(series analytics.Series, crossings []Crossing) Segmentation {
	mergedTime, mergedData, positions := Merge(series, crossings)
	dirs := Classify(series, crossings)
	used := PairCrossings(dirs)

	intervals := make([]PeakInterval, 0, len(used)/2)
	for k := 0; k+1 < len(used); k += 2 {
		on, off := used[k], used[k+1]
		if dirs[on] != Onset || dirs[off] != Offset {
			continue
		}
		start, end := positions[on], positions[off]
		if end < start {
			start, end = end, start
		}
		intervals = append(intervals, PeakInterval{
			Onset:  crossings[on],
			Offset: crossings[off],
			Time:   append([]float64(nil), mergedTime[start:end+1]...),
			Data:   append([]float64(nil), mergedData[start:end+1]...),
		})
	}

	return Segmentation{
		MergedTime: mergedTime,
		MergedData: mergedData,
		Positions:  positions,
		Directions: dirs,
		Used:       used,
		Intervals:  intervals,
	}
}
