package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/queue"
	"github.com/packscale/packscale/internal/utils"
)

// EventKind classifies an alert event
type EventKind string

const (
	// EventOverload fires when the load first rises above the maximum
	EventOverload EventKind = "overload"
	// EventNormalized fires when an overloaded load returns within limits
	EventNormalized EventKind = "normalized"
	// EventImbalance fires when the heavier side changes to left or right
	EventImbalance EventKind = "imbalance"
)

// Event is published on the alerts subject
type Event struct {
	Backpack     string        `json:"backpack"`
	Kind         EventKind     `json:"kind"`
	TotalKg      float64       `json:"totalKg"`
	MaxAllowedKg float64       `json:"maxAllowedKg"`
	LoadPercent  float64       `json:"loadPercent"`
	LeftKg       float64       `json:"leftKg"`
	RightKg      float64       `json:"rightKg"`
	Imbalance    BalanceResult `json:"imbalance"`
	At           time.Time     `json:"at"`
}

type backpackState struct {
	overloaded bool
	direction  Direction
}

// Monitor turns successive snapshots into edge-triggered events: one
// overload event per excursion above the limit, one normalized event on
// return, and one imbalance event per change of heavier side.
type Monitor struct {
	publisher queue.Publisher
	subject   string
	logger    *logging.Logger
	now       func() time.Time

	mu    sync.Mutex
	state map[string]*backpackState
}

// NewMonitor creates a monitor. A nil publisher only tracks state.
func NewMonitor(publisher queue.Publisher, subject string, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.Global()
	}
	return &Monitor{
		publisher: publisher,
		subject:   subject,
		logger:    logger.With("component", "alert_monitor"),
		now:       time.Now,
		state:     make(map[string]*backpackState),
	}
}

// Observe records a snapshot for backpack and publishes any resulting
// events. State advances even when publishing fails.
func (m *Monitor) Observe(ctx context.Context, backpack string, snap Snapshot) ([]Event, error) {
	events := m.transition(backpack, snap)
	if len(events) == 0 || m.publisher == nil {
		return events, nil
	}

	messages := make([]queue.BatchMessage, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return events, fmt.Errorf("failed to encode alert event: %w", err)
		}
		messages = append(messages, queue.BatchMessage{Subject: m.subject, Data: data})
	}

	ctx, cancel := context.WithTimeout(ctx, utils.AlertPublishTimeout)
	defer cancel()
	n, err := m.publisher.PublishBatch(ctx, messages)
	if err != nil {
		return events, fmt.Errorf("failed to publish alert events: %w", err)
	}
	if n < len(messages) {
		m.logger.Warn("Some alert events were not published", "backpack", backpack, "published", n, "total", len(messages))
	}
	for _, e := range events {
		m.logger.Info("Alert event", "backpack", backpack, "kind", string(e.Kind), "total_kg", e.TotalKg, "max_allowed_kg", e.MaxAllowedKg)
	}
	return events, nil
}

func (m *Monitor) transition(backpack string, snap Snapshot) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.state[backpack]
	if !ok {
		st = &backpackState{direction: DirectionBalanced}
		m.state[backpack] = st
	}

	if snap.NoData {
		return nil
	}

	base := Event{
		Backpack:     backpack,
		TotalKg:      snap.TotalKg,
		MaxAllowedKg: snap.MaxAllowedKg,
		LoadPercent:  snap.LoadPercent,
		LeftKg:       snap.LeftKg,
		RightKg:      snap.RightKg,
		Imbalance:    snap.Imbalance,
		At:           m.now().UTC(),
	}

	var events []Event
	switch {
	case snap.Exceeded && !st.overloaded:
		st.overloaded = true
		e := base
		e.Kind = EventOverload
		events = append(events, e)
	case !snap.Exceeded && st.overloaded:
		st.overloaded = false
		e := base
		e.Kind = EventNormalized
		events = append(events, e)
	}

	if snap.Imbalance.Direction != st.direction {
		st.direction = snap.Imbalance.Direction
		if snap.Imbalance.Imbalanced() {
			e := base
			e.Kind = EventImbalance
			events = append(events, e)
		}
	}
	return events
}

// Overloaded reports whether backpack is currently above its limit
func (m *Monitor) Overloaded(backpack string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.state[backpack]
	return ok && st.overloaded
}

// Forget drops the tracked state of backpack
func (m *Monitor) Forget(backpack string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, backpack)
}
