package email

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// MaxBatchSize is the largest batch any provider accepts in one call.
const MaxBatchSize = 100

// Message is one outbound email. From falls back to the sender default.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// BatchSender delivers up to MaxBatchSize messages in one provider call.
// A returned error means the whole batch should be treated as undelivered.
type BatchSender interface {
	SendBatch(ctx context.Context, msgs []Message) error
}

// Send delivers a single message through a BatchSender.
func Send(ctx context.Context, s BatchSender, msg Message) error {
	return s.SendBatch(ctx, []Message{msg})
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendBatch(ctx context.Context, msgs []Message) error {
	for _, m := range msgs {
		s.logger.Info().
			Str("to", strings.Join(m.To, ",")).
			Str("subject", m.Subject).
			Int("html_bytes", len(m.HTML)).
			Msg("email not delivered (log provider)")
	}
	return nil
}
