package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSQueue_PublishSubscribe(t *testing.T) {
	url := setupTestNATS(t)

	q, err := newNATSQueue(url, testLogger())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	var mu sync.Mutex
	var got []string
	require.NoError(t, q.Subscribe("packscale.measurements", func(data []byte) error {
		mu.Lock()
		got = append(got, string(data))
		mu.Unlock()
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Publish(ctx, "packscale.measurements", []byte(`{"backpack":"MOC-1"}`)))

	ok := waitFor(t, 5*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
	require.True(t, ok)
	assert.Equal(t, `{"backpack":"MOC-1"}`, got[0])
}

func TestNATSQueue_PublishBeforeSubscribeIsRetained(t *testing.T) {
	url := setupTestNATS(t)

	q, err := newNATSQueue(url, testLogger())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := q.PublishBatch(ctx, []BatchMessage{
		{Subject: "packscale.alerts", Data: []byte("1")},
		{Subject: "packscale.alerts", Data: []byte("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count atomic.Int32
	require.NoError(t, q.Subscribe("packscale.alerts", func([]byte) error {
		count.Add(1)
		return nil
	}))
	assert.True(t, waitFor(t, 5*time.Second, func() bool { return count.Load() == 2 }))
}

func TestNATSQueue_Redelivery(t *testing.T) {
	url := setupTestNATS(t)

	q, err := newNATSQueue(url, testLogger())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	var attempts atomic.Int32
	require.NoError(t, q.Subscribe("packscale.retry", func([]byte) error {
		if attempts.Add(1) == 1 {
			return assert.AnError
		}
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "packscale.retry", []byte("x")))
	assert.True(t, waitFor(t, 5*time.Second, func() bool { return attempts.Load() >= 2 }))
}

func TestNATSQueue_SubscriptionLifecycle(t *testing.T) {
	url := setupTestNATS(t)
	conn, err := nats.Connect(url)
	require.NoError(t, err)
	defer conn.Close()

	q, err := newNATSQueueWithConn(conn, testLogger())
	require.NoError(t, err)

	handler := func([]byte) error { return nil }
	require.NoError(t, q.Subscribe("packscale.x", handler))
	assert.Error(t, q.Subscribe("packscale.x", handler))
	require.NoError(t, q.Unsubscribe("packscale.x"))
	assert.Error(t, q.Unsubscribe("packscale.x"))

	require.NoError(t, q.Close())
	assert.True(t, conn.IsConnected(), "borrowed connection stays open")
}

func TestNATSQueue_InvalidURL(t *testing.T) {
	_, err := newNATSQueue("nats://127.0.0.1:1", testLogger())
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "packscale_measurements", sanitizeName("packscale.measurements"))
	assert.Equal(t, "a_b-c_d", sanitizeName("a*b-c>d"))
}
