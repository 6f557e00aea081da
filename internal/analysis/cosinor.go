package analysis

import (
	"context"
	"math"
	"strconv"

	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
)

// Form field names of the cosinor analysis
const (
	FieldH             = "h"
	FieldB             = "b"
	FieldV             = "v"
	FieldP             = "p"
	FieldMaxNfev       = "max_nfev"
	FieldLoss          = "loss"
	FieldFScale        = "f_scale"
	FieldSpecifyBounds = "specify_bounds"
	FieldIncludeText   = "include_text"
)

var paramNames = [...]string{FieldH, FieldB, FieldV, FieldP}

func init() {
	Register(&CosinorAnalysis{})
}

// CosinorAnalysis fits h·cos(2π(x+v)/p)+b and reports the rhythm metrics
type CosinorAnalysis struct{}

// Name returns the algorithm name
func (a *CosinorAnalysis) Name() string {
	return "cosinor"
}

// Description returns a one-line summary
func (a *CosinorAnalysis) Description() string {
	return "Cosine least-squares fit with mesor crossings and peak-interval areas"
}

// Form describes the cosinor inputs. Defaults come from DefaultSettings.
func (a *CosinorAnalysis) Form() Form {
	def := DefaultSettings()
	guess := def.Guess.Slice()

	fields := []Field{
		{Name: "spreadsheet", Label: "Time (column A) and data (column B)", Type: FieldSeries, Required: true},
	}
	for i, name := range paramNames {
		fields = append(fields, Field{
			Name:     name,
			Label:    name,
			Type:     FieldNumber,
			Default:  strconv.FormatFloat(guess[i], 'g', -1, 64),
			Required: true,
			Group:    "initial_guess",
		})
	}
	fields = append(fields,
		Field{Name: FieldMaxNfev, Label: "Maximum function evaluations", Type: FieldInt, Default: strconv.Itoa(def.MaxEvaluations)},
		Field{Name: FieldLoss, Label: "Loss", Type: FieldChoice, Default: string(def.Loss), Choices: lossChoices()},
		Field{Name: FieldFScale, Label: "Loss scale", Type: FieldNumber, Default: "1"},
		Field{Name: FieldSpecifyBounds, Label: "Specify bounds", Type: FieldBool},
	)
	for _, name := range paramNames {
		fields = append(fields,
			Field{Name: name + "_lower", Label: name + " lower", Type: FieldNumber, Default: "-inf", Group: "bounds"},
			Field{Name: name + "_upper", Label: name + " upper", Type: FieldNumber, Default: "inf", Group: "bounds"},
		)
	}
	fields = append(fields, Field{Name: FieldIncludeText, Label: "Include summary text", Type: FieldBool})

	return Form{Title: "Cosinor", Fields: fields}
}

func lossChoices() []string {
	out := make([]string, len(cosinor.Losses))
	for i, l := range cosinor.Losses {
		out[i] = string(l)
	}
	return out
}

// FitOptions translates a submission into solver options
func (a *CosinorAnalysis) FitOptions(sub Submission) (cosinor.FitOptions, error) {
	def := sub.Settings
	defGuess := def.Guess.Slice()

	guess := make([]float64, len(paramNames))
	for i, name := range paramNames {
		v, err := sub.Number(name, defGuess[i])
		if err != nil {
			return cosinor.FitOptions{}, err
		}
		guess[i] = v
	}
	params := cosinor.ParamsFromSlice(guess)

	maxNfev, err := sub.Int(FieldMaxNfev, def.MaxEvaluations)
	if err != nil {
		return cosinor.FitOptions{}, err
	}
	if maxNfev == 0 {
		return cosinor.FitOptions{}, invalid("max_nfev must be positive")
	}

	loss := def.Loss
	if sub.Has(FieldLoss) {
		if loss, err = cosinor.ParseLoss(sub.Values[FieldLoss]); err != nil {
			return cosinor.FitOptions{}, err
		}
	}

	fScale, err := sub.Number(FieldFScale, def.FScale)
	if err != nil {
		return cosinor.FitOptions{}, err
	}
	if fScale <= 0 || math.IsInf(fScale, 0) {
		return cosinor.FitOptions{}, invalid("f_scale must be a positive finite number")
	}

	opts := cosinor.FitOptions{
		Guess:          &params,
		Loss:           loss,
		MaxEvaluations: maxNfev,
		FScale:         fScale,
		Tolerances:     def.Tolerances,
	}

	if sub.Bool(FieldSpecifyBounds) {
		lower := make([]float64, len(paramNames))
		upper := make([]float64, len(paramNames))
		for i, name := range paramNames {
			if lower[i], err = sub.Number(name+"_lower", math.Inf(-1)); err != nil {
				return cosinor.FitOptions{}, err
			}
			if upper[i], err = sub.Number(name+"_upper", math.Inf(1)); err != nil {
				return cosinor.FitOptions{}, err
			}
		}
		opts.Bounds = &cosinor.Bounds{
			Lower: cosinor.ParamsFromSlice(lower),
			Upper: cosinor.ParamsFromSlice(upper),
		}
	}

	return opts, nil
}

// Run fits the series and derives every metric, the overlay curve and,
// when include_text is set, the summary text.
func (a *CosinorAnalysis) Run(ctx context.Context, sub Submission) (*Output, error) {
	opts, err := a.FitOptions(sub)
	if err != nil {
		return nil, err
	}

	result, err := cosinor.Analyze(ctx, sub.Series, opts)
	if err != nil {
		return nil, err
	}

	points := sub.Settings.CurvePoints
	if points <= 0 {
		points = cosinor.DefaultCurvePoints
	}

	out := &Output{
		Analysis: a.Name(),
		Result:   result,
		Curve:    cosinor.Curve(result.Params, sub.Series.MinTime(), sub.Series.MaxTime(), points),
		Metrics: map[string]float64{
			"h":           result.Params.H,
			"b":           result.Params.B,
			"v":           result.Params.V,
			"p":           result.Params.P,
			"r":           result.R,
			"r2":          result.R2,
			"ss":          result.SumOfSquares,
			"mesor":       result.Mesor,
			"peak_value":  result.PeakValue,
			"acrophase":   result.Acrophase,
			"crossings":   float64(len(result.Crossings)),
			"intervals":   float64(len(result.Intervals)),
			"status":      float64(result.Status),
			"evaluations": float64(result.Evaluations),
		},
	}
	if sub.Bool(FieldIncludeText) {
		out.Text = cosinor.Summary(result)
	}
	return out, nil
}
