package alerting

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packscale/packscale/internal/config"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/queue"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []queue.BatchMessage
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, queue.BatchMessage{Subject: subject, Data: data})
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, messages []queue.BatchMessage) (int, error) {
	for i, m := range messages {
		if err := p.Publish(ctx, m.Subject, m.Data); err != nil {
			return i, err
		}
	}
	return len(messages), nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds(t *testing.T) []EventKind {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []EventKind
	for _, m := range p.messages {
		var e Event
		require.NoError(t, json.Unmarshal(m.Data, &e))
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func snapshot(left, right float64) Snapshot {
	limits := Limits{UserMassKg: 70, OverloadPercent: 10}
	maxAllowed := limits.MaxAllowed()
	total := left + right
	return Snapshot{
		LeftKg:       left,
		RightKg:      right,
		TotalKg:      total,
		MaxAllowedKg: maxAllowed,
		LoadPercent:  LoadPercent(total, maxAllowed),
		Exceeded:     Exceeded(total, maxAllowed),
		Imbalance:    Balance(left, right),
	}
}

func TestMonitor_OverloadIsEdgeTriggered(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewMonitor(pub, "packscale.alerts", logging.NewNop())
	ctx := context.Background()

	events, err := m.Observe(ctx, "MOC-1", snapshot(4, 4))
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventOverload}, kindsOf(events))
	assert.True(t, m.Overloaded("MOC-1"))

	// Still overloaded: nothing new
	events, err = m.Observe(ctx, "MOC-1", snapshot(4.2, 4))
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = m.Observe(ctx, "MOC-1", snapshot(3, 3))
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventNormalized}, kindsOf(events))
	assert.False(t, m.Overloaded("MOC-1"))

	events, err = m.Observe(ctx, "MOC-1", snapshot(4, 4))
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventOverload}, kindsOf(events))

	assert.Equal(t, []EventKind{EventOverload, EventNormalized, EventOverload}, pub.kinds(t))
	for _, msg := range pub.messages {
		assert.Equal(t, "packscale.alerts", msg.Subject)
	}
}

func TestMonitor_ImbalanceChanges(t *testing.T) {
	m := NewMonitor(nil, "", logging.NewNop())
	ctx := context.Background()

	events, _ := m.Observe(ctx, "MOC-1", snapshot(3, 1))
	assert.Equal(t, []EventKind{EventImbalance}, kindsOf(events))
	assert.Equal(t, DirectionLeft, events[0].Imbalance.Direction)

	events, _ = m.Observe(ctx, "MOC-1", snapshot(3, 1.5))
	assert.Empty(t, events, "same heavier side")

	events, _ = m.Observe(ctx, "MOC-1", snapshot(1, 3))
	assert.Equal(t, []EventKind{EventImbalance}, kindsOf(events))
	assert.Equal(t, DirectionRight, events[0].Imbalance.Direction)

	events, _ = m.Observe(ctx, "MOC-1", snapshot(2, 2))
	assert.Empty(t, events, "returning to balance is silent")

	events, _ = m.Observe(ctx, "MOC-1", snapshot(1, 3))
	assert.Equal(t, []EventKind{EventImbalance}, kindsOf(events))
}

func TestMonitor_BackpacksAreIndependent(t *testing.T) {
	m := NewMonitor(nil, "", logging.NewNop())
	ctx := context.Background()

	_, _ = m.Observe(ctx, "MOC-1", snapshot(4, 4))
	assert.True(t, m.Overloaded("MOC-1"))
	assert.False(t, m.Overloaded("MOC-2"))

	events, _ := m.Observe(ctx, "MOC-2", snapshot(4, 4))
	assert.Equal(t, []EventKind{EventOverload}, kindsOf(events))

	m.Forget("MOC-1")
	assert.False(t, m.Overloaded("MOC-1"))
}

func TestMonitor_NoDataKeepsState(t *testing.T) {
	m := NewMonitor(nil, "", logging.NewNop())
	ctx := context.Background()

	_, _ = m.Observe(ctx, "MOC-1", snapshot(4, 4))
	events, _ := m.Observe(ctx, "MOC-1", Snapshot{NoData: true})
	assert.Empty(t, events)
	assert.True(t, m.Overloaded("MOC-1"))
}

func TestMonitor_PublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: assert.AnError}
	m := NewMonitor(pub, "packscale.alerts", logging.NewNop())

	events, err := m.Observe(context.Background(), "MOC-1", snapshot(4, 4))
	assert.Error(t, err)
	assert.Len(t, events, 1)
	assert.True(t, m.Overloaded("MOC-1"), "state advances so the event is not repeated")
}

func TestMonitor_MemoryQueue(t *testing.T) {
	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"}, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	received := make(chan Event, 4)
	require.NoError(t, q.Subscribe("packscale.alerts", func(data []byte) error {
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		received <- e
		return nil
	}))

	m := NewMonitor(q, "packscale.alerts", logging.NewNop())
	_, err = m.Observe(context.Background(), "MOC-1", snapshot(5, 4))
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, "MOC-1", e.Backpack)
		assert.Equal(t, EventOverload, e.Kind)
		assert.Equal(t, 9.0, e.TotalKg)
	case <-time.After(2 * time.Second):
		t.Fatal("alert event not delivered")
	}
}

func kindsOf(events []Event) []EventKind {
	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
