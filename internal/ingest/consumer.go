package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/queue"
)

// Consumer feeds queue messages into a Pipeline
type Consumer struct {
	subscriber queue.Subscriber
	subject    string
	pipeline   *Pipeline
	logger     *logging.Logger

	// ctx bounds every pipeline call and is cancelled by Stop
	ctx    context.Context
	cancel context.CancelFunc
}

// NewConsumer creates a consumer for subject
func NewConsumer(sub queue.Subscriber, subject string, pipeline *Pipeline, logger *logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Global()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		ctx:        ctx,
		cancel:     cancel,
		subscriber: sub,
		subject:    subject,
		pipeline:   pipeline,
		logger:     logger.With("component", "ingest_consumer", "subject", subject),
	}
}

// Start subscribes to the ingest subject
func (c *Consumer) Start() error {
	if err := c.subscriber.Subscribe(c.subject, c.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	c.logger.Info("Ingest consumer started")
	return nil
}

// Stop cancels in-flight batches and unsubscribes from the ingest subject
func (c *Consumer) Stop() error {
	c.cancel()
	if err := c.subscriber.Unsubscribe(c.subject); err != nil {
		return err
	}
	c.logger.Info("Ingest consumer stopped")
	return nil
}

// handle acknowledges malformed payloads after logging them and returns
// infrastructure errors so the backend redelivers
func (c *Consumer) handle(data []byte) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}

	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		c.logger.Warn("Dropping undecodable batch", "error", err, "bytes", len(data))
		return nil
	}

	_, err := c.pipeline.Ingest(c.ctx, b)
	if err == nil {
		return nil
	}
	if Permanent(err) {
		c.logger.Warn("Dropping invalid batch", "backpack", b.Backpack, "error", err)
		return nil
	}
	c.logger.Error("Failed to ingest batch", "backpack", b.Backpack, "error", err)
	return err
}
