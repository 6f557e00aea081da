// Package analytics provides common types and utilities for periodic
// measurement analysis.
package analytics

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidSeries is returned when a sample series violates its invariants.
var ErrInvalidSeries = errors.New("invalid sample series")

// Point is a single (time, value) coordinate.
type Point struct {
	Time  float64 `json:"x"`
	Value float64 `json:"y"`
}

// Series is a sampled measurement: two equal-length sequences of sample times
// (arbitrary units, non-decreasing) and measured values.
// Analysis code treats a Series as read-only.
type Series struct {
	Time []float64
	Data []float64
}

// Validate checks length, finiteness and ordering of the samples
func (s Series) Validate() error {
	if len(s.Time) != len(s.Data) {
		return fmt.Errorf("%w: time has %d samples, data has %d", ErrInvalidSeries, len(s.Time), len(s.Data))
	}
	if len(s.Time) < 2 {
		return fmt.Errorf("%w: need at least 2 samples, have %d", ErrInvalidSeries, len(s.Time))
	}
	for i := range s.Time {
		if math.IsNaN(s.Time[i]) || math.IsInf(s.Time[i], 0) {
			return fmt.Errorf("%w: time[%d] is not finite", ErrInvalidSeries, i)
		}
		if math.IsNaN(s.Data[i]) || math.IsInf(s.Data[i], 0) {
			return fmt.Errorf("%w: data[%d] is not finite", ErrInvalidSeries, i)
		}
		if i > 0 && s.Time[i] < s.Time[i-1] {
			return fmt.Errorf("%w: time is decreasing at index %d", ErrInvalidSeries, i)
		}
	}
	return nil
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s.Time)
}

// MinTime returns the first sample time
func (s Series) MinTime() float64 {
	if len(s.Time) == 0 {
		return 0
	}
	return s.Time[0]
}

// MaxTime returns the last sample time
func (s Series) MaxTime() float64 {
	if len(s.Time) == 0 {
		return 0
	}
	return s.Time[len(s.Time)-1]
}

// Digest returns a fingerprint of the samples. Two series with bit-identical
// columns share a digest. Mismatched columns are hashed one after the other.
func (s Series) Digest() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, column := range [][]float64{s.Time, s.Data} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(column)))
		_, _ = d.Write(buf[:])
		for _, v := range column {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}
