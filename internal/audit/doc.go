// Package audit relays security events from the Engine to pluggable sinks.
//
// # Components
//
//   - [Sink] consumes events: [NoOpSink], [ChannelSink], [JSONWriterSink] and
//     [ZerologSink].
//   - [Dispatcher] is a buffered async relay that either drops or blocks when
//     its buffer is full.
//   - [Event] is the record: id, timestamp, type, user, session, client IP,
//     outcome and free-form metadata.
//
// # What this package must NOT do
//
//   - Decide which events exist. The Engine does.
//   - Carry plaintext secrets in events.
//   - Import goSession or any sibling internal package.
package audit
