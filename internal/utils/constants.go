package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// ProfileLookupTimeout bounds a single profile registry round-trip
	ProfileLookupTimeout = 3 * time.Second

	// AlertPublishTimeout bounds publishing a single alert event
	AlertPublishTimeout = 2 * time.Second

	// ShutdownTimeout is the graceful shutdown window for the HTTP server
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Engine Constants
// =============================================================================

const (
	// ImbalanceThresholdPercent is the left/right difference above which a
	// reading is flagged as imbalanced. Fixed, not user configurable.
	ImbalanceThresholdPercent = 5.0

	// DefaultUserMassKg is used when a backpack has no stored profile
	DefaultUserMassKg = 70.0

	// DefaultOverloadPercent is the share of body mass a backpack may carry
	DefaultOverloadPercent = 10.0

	// DefaultMinPredictionSamples is the smallest same-weekday history
	// accepted as a prediction basis
	DefaultMinPredictionSamples = 2
)

// =============================================================================
// Store Constants
// =============================================================================

const (
	// DefaultRetention is how long raw measurements are kept in memory
	DefaultRetention = 400 * 24 * time.Hour

	// DefaultCleanupInterval is how often expired measurements are pruned
	DefaultCleanupInterval = time.Hour

	// MaxBatchSize is the maximum number of measurements accepted per write
	MaxBatchSize = 10000
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
