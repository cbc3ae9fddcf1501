package dashauth

import (
	"io"

	"github.com/MrEthical07/dashAuth/audit"
	"github.com/MrEthical07/dashAuth/session"
)

// User is the authenticated operator as reported by the backend.
type User = session.User

// Session is the persisted proof of authentication for the current user.
type Session = session.Record

// AuditEvent is a structured audit record emitted by the subsystem.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the audit dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
