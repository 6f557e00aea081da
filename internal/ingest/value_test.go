package ingest

import (
	"errors"
	"math"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"inf", math.Inf(1), false},
		{"+inf", math.Inf(1), false},
		{"-inf", math.Inf(-1), false},
		{"INF", math.Inf(1), false},
		{"24", 24, false},
		{" -3.5 ", -3.5, false},
		{"1e3", 1000, false},
		{"nan", 0, true},
		{"", 0, true},
		{"twelve", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseValue("p", tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Errorf("Expected ErrInvalidValue, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
