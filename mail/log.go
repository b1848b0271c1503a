package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes messages to a logger instead of delivering them. The body
// contains live credentials; never use it in production.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender returns a [LogSender].
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs msg at info level.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail: not delivered (log sender)")
	return nil
}
