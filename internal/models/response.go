package models

import (
	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/profiles"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Version      string `json:"version"`
	Backpacks    int    `json:"backpacks"`
	Measurements int64  `json:"measurements"`
}

// IngestResponse represents a measurement upload response
type IngestResponse struct {
	Backpack  string            `json:"backpack"`
	Accepted  int               `json:"accepted"`
	Stored    int               `json:"stored"`
	RequestID string            `json:"requestId"`
	Current   alerting.Snapshot `json:"current"`
	Events    []alerting.Event  `json:"events,omitempty"`
}

// ProfileListResponse represents list profiles response
type ProfileListResponse struct {
	Profiles []*profiles.Profile `json:"profiles"`
}

// PresetListResponse lists the report presets served per backpack
type PresetListResponse struct {
	Presets []string `json:"presets"`
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
