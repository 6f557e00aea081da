package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned for form and cell values that are not numbers
var ErrInvalidValue = errors.New("invalid value")

// ParseValue converts a form value into a float. Besides plain real numbers
// it accepts "inf", "+inf" and "-inf" (any case). NaN is rejected.
func ParseValue(name, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%w for %q: expected -inf, inf, or a numerical value, got %q", ErrInvalidValue, name, raw)
	}
	return v, nil
}

// parseCell accepts finite numbers only
func parseCell(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
