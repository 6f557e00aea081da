// Package services provides the business logic layer between transports and
// the analysis engine.
package services

import (
	"context"
	"errors"

	"github.com/soltixdb/cosinor/internal/analysis"
	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
	"github.com/soltixdb/cosinor/internal/ingest"
)

// Service error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeFitFailed          = "FIT_FAILED"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeUnknownAnalysis    = "UNKNOWN_ANALYSIS"
	CodeInvalidSpreadsheet = "INVALID_SPREADSHEET"
	CodeTimeout            = "TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap exposes the engine error the service error was built from
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// FromError classifies an engine, ingest or registry error. A nil error
// gives nil and a *ServiceError is returned as is.
func FromError(err error) *ServiceError {
	if err == nil {
		return nil
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	out := &ServiceError{Code: CodeInternal, Message: err.Error(), cause: err}

	var (
		fitErr     *cosinor.FitError
		unknownErr *analysis.ErrUnknownAnalysis
	)
	switch {
	case errors.As(err, &unknownErr):
		out.Code = CodeUnknownAnalysis
		out.Details = map[string]interface{}{"available": analysisNames()}
	case errors.As(err, &fitErr):
		if fitErr.Status == cosinor.StatusCancelled {
			out.Code = CodeTimeout
			break
		}
		out.Code = CodeFitFailed
		out.Details = map[string]interface{}{
			"status":      fitErr.Status,
			"reason":      fitErr.Message,
			"evaluations": fitErr.Evaluations,
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		out.Code = CodeTimeout
	case errors.Is(err, ingest.ErrInvalidSpreadsheet), errors.Is(err, ingest.ErrUnsupportedFormat):
		out.Code = CodeInvalidSpreadsheet
	case errors.Is(err, cosinor.ErrInsufficientData):
		out.Code = CodeInsufficientData
	case errors.Is(err, cosinor.ErrInvalidInput),
		errors.Is(err, analytics.ErrInvalidSeries),
		errors.Is(err, ingest.ErrInvalidValue):
		out.Code = CodeInvalidInput
	}
	return out
}

func analysisNames() []string {
	list := analysis.List()
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name()
	}
	return names
}
