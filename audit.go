package goSession

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/internal/audit"
)

// AuditEvent is one security event emitted by the engine.
type AuditEvent = audit.Event

// AuditSink consumes audit events. Implementations must be safe for use from
// the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// ZerologSink writes events through a zerolog logger.
type ZerologSink = audit.ZerologSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewZerologSink returns a [ZerologSink] writing through logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return audit.NewZerologSink(logger)
}
