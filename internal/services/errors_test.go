package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/storage"
)

func TestNewServiceError(t *testing.T) {
	err := NewServiceError("ERROR_CODE", "Error message")

	if err.Code != "ERROR_CODE" {
		t.Errorf("Expected code 'ERROR_CODE', got '%s'", err.Code)
	}
	if err.Error() != "Error message" {
		t.Errorf("Expected message 'Error message', got '%s'", err.Error())
	}
	if err.Details != nil {
		t.Errorf("Expected nil details, got %v", err.Details)
	}
}

func TestNewServiceErrorWithDetails(t *testing.T) {
	err := NewServiceErrorWithDetails(CodeInvalidRequest, "Validation failed", map[string]interface{}{
		"field": "granularity",
	})

	if err.Details == nil {
		t.Fatal("Expected non-nil details")
	}
	if err.Details["field"] != "granularity" {
		t.Errorf("Expected field 'granularity', got '%v'", err.Details["field"])
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"granularity", fmt.Errorf("bad: %w", aggregation.ErrInvalidGranularity), CodeInvalidRequest},
		{"period", aggregation.ErrInvalidPeriod, CodeInvalidRequest},
		{"too many buckets", aggregation.ErrTooManyBuckets, CodeInvalidRequest},
		{"request", report.ErrInvalidRequest, CodeInvalidRequest},
		{"batch", storage.ErrBatchTooLarge, CodeInvalidRequest},
		{"backpack", storage.ErrInvalidBackpack, CodeInvalidBackpack},
		{"profile", profiles.ErrInvalidProfile, CodeInvalidProfile},
		{"not found", profiles.ErrNotFound, CodeNotFound},
		{"closed store", storage.ErrStoreClosed, CodeUnavailable},
		{"timeout", context.DeadlineExceeded, CodeUnavailable},
		{"other", errors.New("disk on fire"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := wrapError(tt.err, "Operation failed")
			if se.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, se.Code)
			}
			if !errors.Is(se, tt.err) {
				t.Errorf("Expected service error to wrap %v", tt.err)
			}
		})
	}
}

func TestWrapError_HidesInfrastructureCause(t *testing.T) {
	se := wrapError(errors.New("etcd: connection refused"), "Failed to load profile")

	if se.Message != "Failed to load profile" {
		t.Errorf("Expected generic message, got '%s'", se.Message)
	}
	if se.Details["error"] != "etcd: connection refused" {
		t.Errorf("Expected cause in details, got %v", se.Details["error"])
	}
}

func TestWrapError_KeepsServiceError(t *testing.T) {
	orig := NewServiceError(CodeNotFound, "gone")
	if got := wrapError(fmt.Errorf("ctx: %w", orig), "x"); got != orig {
		t.Errorf("Expected the original service error, got %v", got)
	}
}
