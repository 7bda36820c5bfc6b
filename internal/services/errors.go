// Package services provides the business logic layer between handlers and
// the engine, the measurement store and the profile registry.
package services

import (
	"context"
	"errors"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/storage"
)

// Error codes carried by ServiceError
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidBackpack = "INVALID_BACKPACK"
	CodeInvalidProfile  = "INVALID_PROFILE"
	CodeNotFound        = "NOT_FOUND"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	cause error
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the error the service error was built from
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

// wrapError classifies err by the sentinel it wraps. message is used for
// infrastructure failures, whose cause is not shown to clients.
func wrapError(err error, message string) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var se *ServiceError
	switch {
	case errors.Is(err, aggregation.ErrInvalidGranularity),
		errors.Is(err, aggregation.ErrInvalidPeriod),
		errors.Is(err, aggregation.ErrTooManyBuckets),
		errors.Is(err, report.ErrInvalidRequest),
		errors.Is(err, measurement.ErrInvalidMeasurement),
		errors.Is(err, storage.ErrBatchTooLarge):
		se = NewServiceError(CodeInvalidRequest, err.Error())
	case errors.Is(err, storage.ErrInvalidBackpack):
		se = NewServiceError(CodeInvalidBackpack, err.Error())
	case errors.Is(err, profiles.ErrInvalidProfile):
		se = NewServiceError(CodeInvalidProfile, err.Error())
	case errors.Is(err, profiles.ErrNotFound):
		se = NewServiceError(CodeNotFound, err.Error())
	case errors.Is(err, storage.ErrStoreClosed),
		errors.Is(err, context.DeadlineExceeded):
		se = NewServiceErrorWithDetails(CodeUnavailable, message, map[string]interface{}{"error": err.Error()})
	default:
		se = NewServiceErrorWithDetails(CodeInternal, message, map[string]interface{}{"error": err.Error()})
	}
	se.cause = err
	return se
}
