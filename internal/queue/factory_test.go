package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packscale/packscale/internal/config"
)

func TestNewQueue_Memory(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "memory"}, nil)
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	_, ok := q.(*MemoryQueue)
	assert.True(t, ok)
}

func TestNewQueue_DefaultsToNATS(t *testing.T) {
	url := setupTestNATS(t)

	q, err := NewQueue(config.QueueConfig{URL: url}, testLogger())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	_, ok := q.(*NATSQueue)
	assert.True(t, ok)
}

func TestNewQueue_Kafka(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "KAFKA", KafkaBrokers: []string{"localhost:9092"}}, testLogger())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	kq, ok := q.(*KafkaQueue)
	require.True(t, ok)
	assert.Equal(t, "packscale-group", kq.config.GroupID)
}

func TestNewQueue_UnsupportedType(t *testing.T) {
	_, err := NewQueue(config.QueueConfig{Type: "carrier-pigeon"}, testLogger())
	assert.Error(t, err)
}
