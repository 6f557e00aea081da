// Package analysis exposes the available rhythm analyses behind a common
// interface so that transports (HTTP, CLI) can list, describe and run them
// by name.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
	"github.com/soltixdb/cosinor/internal/ingest"
)

// FieldType describes how a form value is interpreted
type FieldType string

const (
	FieldNumber FieldType = "number" // real number, inf, +inf or -inf
	FieldInt    FieldType = "int"
	FieldBool   FieldType = "bool"
	FieldChoice FieldType = "choice"
	FieldSeries FieldType = "series" // the uploaded time/data columns
)

// Field is one input of an analysis form
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Default  string    `json:"default,omitempty"`
	Required bool      `json:"required"`
	Choices  []string  `json:"choices,omitempty"`
	Group    string    `json:"group,omitempty"`
}

// Form describes the inputs an analysis accepts
type Form struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Settings are the fit defaults applied to values a submission leaves out
type Settings struct {
	Guess          cosinor.Params
	Loss           cosinor.LossKind
	FScale         float64
	MaxEvaluations int
	CurvePoints    int
	Tolerances     cosinor.Tolerances
}

// DefaultSettings mirrors the fit package defaults
func DefaultSettings() Settings {
	return Settings{
		Guess:          cosinor.DefaultGuess,
		Loss:           cosinor.LossLinear,
		FScale:         1,
		MaxEvaluations: cosinor.DefaultMaxEvaluations,
		CurvePoints:    cosinor.DefaultCurvePoints,
		Tolerances:     cosinor.DefaultTolerances(),
	}
}

// Submission is one request to run an analysis
type Submission struct {
	Series   analytics.Series
	Values   map[string]string
	Settings Settings
}

// Has reports whether a non-blank value was submitted for name
func (s Submission) Has(name string) bool {
	return strings.TrimSpace(s.Values[name]) != ""
}

// Number returns the numeric value of name, or def when it is absent
func (s Submission) Number(name string, def float64) (float64, error) {
	if !s.Has(name) {
		return def, nil
	}
	v, err := ingest.ParseValue(name, s.Values[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", cosinor.ErrInvalidInput, err)
	}
	return v, nil
}

// Int returns the integer value of name, or def when it is absent
func (s Submission) Int(name string, def int) (int, error) {
	if !s.Has(name) {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s.Values[name]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q must be an integer, got %q", cosinor.ErrInvalidInput, name, s.Values[name])
	}
	return v, nil
}

// Bool treats any present value other than false/0/off as set, like an
// HTML checkbox.
func (s Submission) Bool(name string) bool {
	if !s.Has(name) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s.Values[name])) {
	case "false", "0", "off", "no":
		return false
	}
	return true
}

// Output is the outcome of one analysis run
type Output struct {
	Analysis string             `json:"analysis"`
	Result   interface{}        `json:"result"`
	Curve    []analytics.Point  `json:"curve,omitempty"`
	Text     string             `json:"text,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
}

// Analysis is a named, self-describing computation over a series
type Analysis interface {
	// Name returns the registry key
	Name() string
	// Description is a one-line summary for listings
	Description() string
	// Form describes the accepted inputs
	Form() Form
	// Run executes the analysis
	Run(ctx context.Context, sub Submission) (*Output, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Analysis)
)

// Register adds an analysis to the registry, replacing any previous
// analysis with the same name
func Register(a Analysis) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[a.Name()] = a
}

// ErrUnknownAnalysis is returned by Get for names that were never registered
type ErrUnknownAnalysis struct {
	Name string
}

func (e *ErrUnknownAnalysis) Error() string {
	return fmt.Sprintf("unknown analysis: %s", e.Name)
}

// Get returns an analysis by name
func Get(name string) (Analysis, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if a, ok := registry[name]; ok {
		return a, nil
	}
	return nil, &ErrUnknownAnalysis{Name: name}
}

// List returns the registered analyses sorted by name
func List() []Analysis {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Analysis, 0, len(registry))
	for _, a := range registry {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", cosinor.ErrInvalidInput, msg)
}
