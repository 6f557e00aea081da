package models

import (
	"github.com/soltixdb/cosinor/internal/analysis"
	"github.com/soltixdb/cosinor/internal/analytics"
)

// HealthResponse reports liveness and what this instance can run
type HealthResponse struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Version   string   `json:"version"`
	Analyses  []string `json:"analyses"`
	Events    bool     `json:"events"` // analysis events are being published
}

// AnalysisInfo describes one registered analysis
type AnalysisInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Form        analysis.Form `json:"form"`
}

// AnalysisListResponse represents list analyses response
type AnalysisListResponse struct {
	Analyses []AnalysisInfo `json:"analyses"`
}

// AnalysisResponse is the outcome of one analysis run
type AnalysisResponse struct {
	RunID      string             `json:"run_id"`
	Analysis   string             `json:"analysis"`
	Samples    int                `json:"samples"`
	DurationMS int64              `json:"duration_ms"`
	Result     interface{}        `json:"result"`
	Metrics    map[string]float64 `json:"metrics"`
	Curve      []analytics.Point  `json:"curve,omitempty"`
	Text       string             `json:"text,omitempty"`
}

// SpreadsheetResponse carries the parsed time and data columns
type SpreadsheetResponse struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// RegressionResponse carries only the fitted parameters
type RegressionResponse struct {
	H float64 `json:"h"`
	B float64 `json:"b"`
	V float64 `json:"v"`
	P float64 `json:"p"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
