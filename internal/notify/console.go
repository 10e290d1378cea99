package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// ConsoleMailer writes messages to the log instead of delivering them.
type ConsoleMailer struct{}

func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	log.Info().
		Str("from", msg.From).
		Str("to", strings.Join(msg.To, ",")).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Mail message")
	return nil
}

func (m *ConsoleMailer) Close() error {
	return nil
}
