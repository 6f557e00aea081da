package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/cosinor/internal/analysis"
	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/ingest"
	"github.com/soltixdb/cosinor/internal/logging"
)

// RegressionName is the analysis name events carry for regression-only runs
const RegressionName = "regression"

// AnalysisService runs registered analyses with configured defaults
type AnalysisService struct {
	logger   *logging.Logger
	settings analysis.Settings
	timeout  time.Duration
	ingest   ingest.Options
	notifier *Notifier
}

// SettingsFromConfig converts the analysis config section into fit defaults
func SettingsFromConfig(cfg config.AnalysisConfig) (analysis.Settings, error) {
	loss, err := cosinor.ParseLoss(cfg.Loss)
	if err != nil {
		return analysis.Settings{}, err
	}
	return analysis.Settings{
		Guess: cosinor.Params{
			H: cfg.InitialGuess.H,
			B: cfg.InitialGuess.B,
			V: cfg.InitialGuess.V,
			P: cfg.InitialGuess.P,
		},
		Loss:           loss,
		FScale:         cfg.FScale,
		MaxEvaluations: cfg.MaxEvaluations,
		CurvePoints:    cfg.CurvePoints,
		Tolerances: cosinor.Tolerances{
			FTol: cfg.FTol,
			XTol: cfg.XTol,
			GTol: cfg.GTol,
		},
	}, nil
}

// NewAnalysisService creates a new AnalysisService. notifier may be nil.
func NewAnalysisService(
	logger *logging.Logger,
	analysisCfg config.AnalysisConfig,
	ingestCfg config.IngestConfig,
	notifier *Notifier,
) (*AnalysisService, error) {
	settings, err := SettingsFromConfig(analysisCfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &AnalysisService{
		logger:   logger,
		settings: settings,
		timeout:  analysisCfg.Timeout,
		ingest:   ingest.Options{MaxRows: ingestCfg.MaxRows},
		notifier: notifier,
	}, nil
}

// Settings returns the fit defaults applied to every submission
func (s *AnalysisService) Settings() analysis.Settings {
	return s.settings
}

// EventsEnabled reports whether runs publish AnalysisEvents
func (s *AnalysisService) EventsEnabled() bool {
	return s.notifier != nil
}

// List returns the registered analyses
func (s *AnalysisService) List() []analysis.Analysis {
	return analysis.List()
}

// RunResult is one completed run
type RunResult struct {
	RunID    string
	Output   *analysis.Output
	Duration time.Duration
}

// Run executes the named analysis. Errors are *ServiceError.
func (s *AnalysisService) Run(ctx context.Context, name string, series analytics.Series, values map[string]string) (*RunResult, error) {
	a, err := analysis.Get(name)
	if err != nil {
		return nil, FromError(err)
	}

	runID := uuid.NewString()
	ctx, cancel := s.withTimeout(logging.WithRunID(ctx, runID))
	defer cancel()

	start := time.Now()
	out, err := a.Run(ctx, analysis.Submission{Series: series, Values: values, Settings: s.settings})
	duration := time.Since(start)

	event := s.event(runID, name, series, duration)
	if err != nil {
		serr := FromError(err)
		s.logRunFailure(ctx, name, series, serr, duration)
		event.Error = serr.Message
		event.ErrorCode = serr.Code
		s.notify(event)
		return nil, serr
	}

	if res, ok := out.Result.(*cosinor.Result); ok {
		fillEvent(&event, res)
	}
	s.logger.WithContext(ctx).Info("Analysis completed",
		"analysis", name,
		"samples", series.Len(),
		"status", event.Status,
		"evaluations", out.Metrics["evaluations"],
		"crossings", event.Crossings,
		"latency_ms", duration.Milliseconds())
	s.notify(event)

	return &RunResult{RunID: runID, Output: out, Duration: duration}, nil
}

// Regression fits the cosine model and returns only the parameters
func (s *AnalysisService) Regression(ctx context.Context, series analytics.Series, values map[string]string) (cosinor.Params, error) {
	runID := uuid.NewString()
	ctx, cancel := s.withTimeout(logging.WithRunID(ctx, runID))
	defer cancel()

	a := &analysis.CosinorAnalysis{}
	opts, err := a.FitOptions(analysis.Submission{Series: series, Values: values, Settings: s.settings})
	if err != nil {
		return cosinor.Params{}, FromError(err)
	}

	start := time.Now()
	fit, err := cosinor.Fit(ctx, series, opts)
	duration := time.Since(start)

	event := s.event(runID, RegressionName, series, duration)
	if err != nil {
		serr := FromError(err)
		s.logRunFailure(ctx, RegressionName, series, serr, duration)
		event.Error = serr.Message
		event.ErrorCode = serr.Code
		s.notify(event)
		return cosinor.Params{}, serr
	}

	event.Status = fit.Status
	event.Params = &fit.Params
	s.logger.WithContext(ctx).Info("Regression completed",
		"samples", series.Len(),
		"status", fit.Status,
		"evaluations", fit.Evaluations,
		"latency_ms", duration.Milliseconds())
	s.notify(event)

	return fit.Params, nil
}

// ParseSpreadsheet reads an uploaded workbook into a series
func (s *AnalysisService) ParseSpreadsheet(filename string, r io.Reader) (analytics.Series, error) {
	series, err := ingest.ParseSpreadsheet(filename, r, s.ingest)
	if err != nil {
		return analytics.Series{}, FromError(err)
	}
	return series, nil
}

func (s *AnalysisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *AnalysisService) event(runID, name string, series analytics.Series, d time.Duration) AnalysisEvent {
	return AnalysisEvent{
		RunID:      runID,
		Analysis:   name,
		Samples:    series.Len(),
		Digest:     fmt.Sprintf("%016x", series.Digest()),
		DurationMS: d.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
}

func fillEvent(ev *AnalysisEvent, res *cosinor.Result) {
	params := res.Params
	ev.Status = res.Status
	ev.Params = &params
	ev.R2 = res.R2
	ev.Crossings = len(res.Crossings)
	ev.Intervals = len(res.Intervals)
}

func (s *AnalysisService) logRunFailure(ctx context.Context, name string, series analytics.Series, serr *ServiceError, d time.Duration) {
	log := s.logger.WithContext(ctx)
	fields := []interface{}{
		"analysis", name,
		"samples", series.Len(),
		"code", serr.Code,
		"error", serr.Message,
		"latency_ms", d.Milliseconds(),
	}
	var fitErr *cosinor.FitError
	if errors.As(serr, &fitErr) {
		fields = append(fields, "status", fitErr.Status, "evaluations", fitErr.Evaluations)
	}
	if serr.Code == CodeInternal {
		log.Error("Analysis failed", fields...)
		return
	}
	log.Warn("Analysis rejected", fields...)
}

func (s *AnalysisService) notify(ev AnalysisEvent) {
	if s.notifier != nil {
		s.notifier.Notify(ev)
	}
}
