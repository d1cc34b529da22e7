// Package broker defines the event-streaming client capability used by the
// relay. Implementations maintain an authenticated connection to the broker;
// the relay only builds batches and publishes them.
package broker

import "context"

// PropertyLogType is the event property carrying the caller-supplied log type.
const PropertyLogType = "LogType"

// Event is a single outbound event: an opaque payload plus optional
// string-keyed properties.
type Event struct {
	Data       []byte
	Properties map[string]string
}

// Batch accumulates events for a single publish operation.
type Batch interface {
	// Add appends an event to the batch.
	Add(Event)

	// Len returns the number of events in the batch.
	Len() int
}

// Client is the injected broker capability. Implementations must be safe for
// concurrent use; the relay shares one client across all requests and closes
// it exactly once at shutdown.
type Client interface {
	// CreateBatch returns an empty batch bound to this client.
	CreateBatch() Batch

	// Publish sends all events in the batch to the broker.
	Publish(ctx context.Context, batch Batch) error

	// Close releases the underlying connection.
	Close() error
}
