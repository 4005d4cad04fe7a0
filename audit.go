package goSession

import (
	"io"

	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
)

// Audit event types emitted by the engine.
const (
	AuditLogin              = "login"
	AuditLogout             = "logout"
	AuditRenew              = "renew"
	AuditForcedLogout       = "forced_logout"
	AuditHydrate            = "hydrate"
	AuditAuthorizationLost  = "authorization_lost"
	AuditNavigationDenied   = "navigation_denied"
	AuditNavigationNotFound = "navigation_not_found"
)

// AuditEvent is one audit record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// ZapSink logs events through a zap logger.
type ZapSink = internalaudit.ZapSink

// MultiSink forwards each event to several sinks.
type MultiSink = internalaudit.MultiSink

// AuditStats counts delivered, dropped and sink-panicked events.
type AuditStats = internalaudit.Stats

// NewZapSink returns a sink logging to log under the "audit" name.
func NewZapSink(log *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(log)
}

// NewMultiSink fans events out to sinks in order.
func NewMultiSink(sinks ...AuditSink) MultiSink {
	return internalaudit.MultiSink(sinks)
}
