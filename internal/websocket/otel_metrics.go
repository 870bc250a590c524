package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "boqscope.websocket"

// OTelMetrics instruments the progress feed: connection lifecycle, message
// flow through the pumps, and hub broadcast outcomes.
type OTelMetrics struct {
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
	connectionErrors   metric.Int64Counter

	messagesTotal metric.Int64Counter
	messageBytes  metric.Int64Counter

	droppedMessages     metric.Int64Counter
	broadcastOperations metric.Int64Counter
	clientCount         metric.Int64Gauge
}

// instrumentSet latches the first creation error so NewOTelMetrics reads as
// a flat declaration list instead of nine error checks.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) counter(name, desc string) metric.Int64Counter {
	if s.err != nil {
		return nil
	}
	inst, err := s.meter.Int64Counter(name, metric.WithDescription(desc))
	s.err = err
	return inst
}

func (s *instrumentSet) upDownCounter(name, desc string) metric.Int64UpDownCounter {
	if s.err != nil {
		return nil
	}
	inst, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	s.err = err
	return inst
}

func (s *instrumentSet) secondsHistogram(name, desc string) metric.Float64Histogram {
	if s.err != nil {
		return nil
	}
	inst, err := s.meter.Float64Histogram(name,
		metric.WithDescription(desc), metric.WithUnit("s"))
	s.err = err
	return inst
}

func (s *instrumentSet) gauge(name, desc string) metric.Int64Gauge {
	if s.err != nil {
		return nil
	}
	inst, err := s.meter.Int64Gauge(name, metric.WithDescription(desc))
	s.err = err
	return inst
}

// NewOTelMetrics builds the instrument set against the global meter provider.
// Under a no-op provider the instruments are no-ops but never nil.
func NewOTelMetrics() (*OTelMetrics, error) {
	set := &instrumentSet{meter: otel.Meter(meterName)}

	m := &OTelMetrics{
		connectionsTotal: set.counter("websocket_connections_total",
			"Progress feed connections opened"),
		connectionsActive: set.upDownCounter("websocket_connections_active",
			"Progress feed connections currently open"),
		connectionDuration: set.secondsHistogram("websocket_connection_duration_seconds",
			"How long progress feed connections stay open"),
		connectionErrors: set.counter("websocket_connection_errors_total",
			"Read and write failures on progress feed connections"),
		messagesTotal: set.counter("websocket_messages_total",
			"Messages through the progress feed, by direction"),
		messageBytes: set.counter("websocket_message_bytes_total",
			"Payload bytes through the progress feed, by direction"),
		droppedMessages: set.counter("websocket_dropped_messages_total",
			"Messages dropped because a client send buffer was full"),
		broadcastOperations: set.counter("websocket_broadcast_operations_total",
			"Hub broadcast fan-outs"),
		clientCount: set.gauge("websocket_client_count",
			"Clients registered with the hub"),
	}
	if set.err != nil {
		return nil, set.err
	}
	return m, nil
}

// RecordConnection counts an accepted connection and grows the active gauge.
func (m *OTelMetrics) RecordConnection(ctx context.Context, clientID, remoteAddr string) {
	opts := metric.WithAttributes(
		attribute.String("client_id", clientID),
		attribute.String("remote_addr", remoteAddr),
	)
	m.connectionsTotal.Add(ctx, 1, opts)
	m.connectionsActive.Add(ctx, 1, opts)
}

// RecordDisconnection shrinks the active gauge and records how long the
// connection lasted.
func (m *OTelMetrics) RecordDisconnection(ctx context.Context, clientID string, duration time.Duration, reason string) {
	opts := metric.WithAttributes(
		attribute.String("client_id", clientID),
		attribute.String("disconnect_reason", reason),
	)
	m.connectionsActive.Add(ctx, -1, opts)
	m.connectionDuration.Record(ctx, duration.Seconds(), opts)
}

// RecordConnectionError counts a read or write failure on a client socket.
func (m *OTelMetrics) RecordConnectionError(ctx context.Context, clientID, errorType string, err error) {
	m.connectionErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_id", clientID),
		attribute.String("error_type", errorType),
		attribute.String("error", err.Error()),
	))
}

// RecordMessageSent counts an outbound message and its payload size.
func (m *OTelMetrics) RecordMessageSent(ctx context.Context, messageType, clientID string, size int64) {
	opts := metric.WithAttributes(
		attribute.String("direction", "outbound"),
		attribute.String("message_type", messageType),
		attribute.String("client_id", clientID),
	)
	m.messagesTotal.Add(ctx, 1, opts)
	m.messageBytes.Add(ctx, size, opts)
}

// RecordMessageReceived counts an inbound message and its payload size.
func (m *OTelMetrics) RecordMessageReceived(ctx context.Context, messageType, clientID string, size int64) {
	opts := metric.WithAttributes(
		attribute.String("direction", "inbound"),
		attribute.String("message_type", messageType),
		attribute.String("client_id", clientID),
	)
	m.messagesTotal.Add(ctx, 1, opts)
	m.messageBytes.Add(ctx, size, opts)
}

// RecordDroppedMessage counts a message discarded instead of delivered.
func (m *OTelMetrics) RecordDroppedMessage(ctx context.Context, messageType, reason string) {
	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("message_type", messageType),
		attribute.String("drop_reason", reason),
	))
}

// RecordBroadcast counts one hub fan-out with its per-client outcome split.
func (m *OTelMetrics) RecordBroadcast(ctx context.Context, messageType string, clientCount, successCount, failCount int64) {
	m.broadcastOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("message_type", messageType),
		attribute.Int64("client_count", clientCount),
		attribute.Int64("success_count", successCount),
		attribute.Int64("fail_count", failCount),
	))
}

// RecordClientCount samples the hub's registered client total.
func (m *OTelMetrics) RecordClientCount(ctx context.Context, count int64) {
	m.clientCount.Record(ctx, count)
}

// globalOTelMetrics is shared by the hub and all client pumps. nil until
// InitOTelMetrics runs; recorders are guarded at the call sites.
var globalOTelMetrics *OTelMetrics

// InitOTelMetrics wires the package-wide instrument set. Called once from
// application startup, after the meter provider is installed.
func InitOTelMetrics() error {
	metrics, err := NewOTelMetrics()
	if err != nil {
		return err
	}
	globalOTelMetrics = metrics
	return nil
}

// GetOTelMetrics returns the shared instrument set, or nil before init.
func GetOTelMetrics() *OTelMetrics {
	return globalOTelMetrics
}
