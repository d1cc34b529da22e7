// Package natsbroker implements the broker.Client capability on NATS JetStream.
package natsbroker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/telhawk-systems/telemetry-relay/internal/broker"
)

// Config holds NATS connection and stream settings.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject is the subject events are published to.
	Subject string

	// Stream is the JetStream stream capturing Subject. When empty, no
	// stream is created and publishes go to whatever stream already
	// captures the subject.
	Stream string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       "relay.events",
		Stream:        "RELAY_EVENTS",
		Name:          "telemetry-relay",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Client publishes event batches to a JetStream subject.
type Client struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// New connects to NATS, sets up JetStream, and ensures the configured stream
// exists. The returned client is safe for concurrent use.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if cfg.Stream != "" {
		streamCfg := jetstream.StreamConfig{
			Name:      cfg.Stream,
			Subjects:  []string{cfg.Subject},
			MaxAge:    24 * time.Hour,
			MaxBytes:  1024 * 1024 * 1024,
			Retention: jetstream.LimitsPolicy,
			Storage:   jetstream.FileStorage,
		}
		if _, err := js.CreateOrUpdateStream(ctx, streamCfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.Stream, err)
		}
	}

	return &Client{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
	}, nil
}

// CreateBatch returns an empty event batch.
func (c *Client) CreateBatch() broker.Batch {
	return &batch{}
}

// Publish sends every event in the batch to the configured subject, waiting
// for JetStream acknowledgement. Event properties become message headers.
func (c *Client) Publish(ctx context.Context, b broker.Batch) error {
	eb, ok := b.(*batch)
	if !ok {
		return fmt.Errorf("batch was not created by this client")
	}

	for _, ev := range eb.events {
		if _, err := c.js.PublishMsg(ctx, eventMsg(ev, c.subject)); err != nil {
			return fmt.Errorf("publish to %s: %w", c.subject, err)
		}
	}
	return nil
}

// Close drains the connection, allowing in-flight publishes to complete.
func (c *Client) Close() error {
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

type batch struct {
	events []broker.Event
}

func (b *batch) Add(ev broker.Event) {
	b.events = append(b.events, ev)
}

func (b *batch) Len() int {
	return len(b.events)
}

// eventMsg converts an event to a NATS message on the given subject.
func eventMsg(ev broker.Event, subject string) *nats.Msg {
	msg := &nats.Msg{
		Subject: subject,
		Data:    ev.Data,
	}
	if len(ev.Properties) > 0 {
		msg.Header = make(nats.Header)
		for k, v := range ev.Properties {
			msg.Header.Set(k, v)
		}
	}
	return msg
}
