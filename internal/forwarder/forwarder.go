// Package forwarder builds single-event batches and publishes them to the broker.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/telhawk-systems/telemetry-relay/internal/broker"
	"github.com/telhawk-systems/telemetry-relay/internal/logging"
	"github.com/telhawk-systems/telemetry-relay/internal/metrics"
)

// ErrNotInitialized indicates the broker client handle is absent.
var ErrNotInitialized = errors.New("broker client is not initialized")

// ProcessingError wraps any failure raised while building or publishing a
// batch. The message is for diagnostics only and never reaches an HTTP
// response body.
type ProcessingError struct {
	cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to forward event to broker: %v", e.cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.cause
}

// Forwarder publishes one event per Send call. It performs no retries and no
// buffering across calls; retry policy belongs to the broker client or an
// outer supervisor.
type Forwarder struct {
	client broker.Client
	logger *logging.Logger
}

// New creates a Forwarder around the injected broker client.
func New(client broker.Client, logger *logging.Logger) *Forwarder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Forwarder{
		client: client,
		logger: logger,
	}
}

// Send publishes data as a single event, tagging it with logType when non-empty.
// Exactly one publish attempt is made per call.
func (f *Forwarder) Send(ctx context.Context, data []byte, logType string) error {
	if f.client == nil {
		return &ProcessingError{cause: ErrNotInitialized}
	}

	batch := f.client.CreateBatch()
	event := broker.Event{Data: data}
	if logType != "" {
		event.Properties = map[string]string{broker.PropertyLogType: logType}
	}
	batch.Add(event)

	start := time.Now()
	if err := f.client.Publish(ctx, batch); err != nil {
		metrics.PublishErrors.Inc()
		f.logger.ErrorContext(ctx, "broker publish failed", logging.Error(err))
		return &ProcessingError{cause: err}
	}
	metrics.PublishDuration.Observe(time.Since(start).Seconds())

	f.logger.DebugContext(ctx, "event published",
		logging.Bytes(len(data)),
		logging.LogType(logType),
	)
	return nil
}
