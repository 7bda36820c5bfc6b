// Package models holds the HTTP request and response bodies.
package models

import "github.com/packscale/packscale/internal/measurement"

// IngestRequest is the body of a measurement upload. A bare JSON array of
// measurements is accepted as well.
type IngestRequest struct {
	Measurements []measurement.Measurement `json:"measurements"`
}
