package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
)

// Transports a Mailer can be opened with.
const (
	TransportConsole = "console"
	TransportSES     = "ses"
	TransportAMQP    = "amqp"
)

var ErrUnknownTransport = errors.New("unknown mail transport")

// Message is an outbound plain text email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Mailer delivers messages to a mail transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Config selects and configures the mail transport.
type Config struct {
	Transport string   `yaml:"transport"`
	From      string   `yaml:"from"`
	To        []string `yaml:"to"`
	SESRegion string   `yaml:"ses_region"`
	AMQPURL   string   `yaml:"amqp_url"`
	AMQPQueue string   `yaml:"amqp_queue"`
}

// Validate checks the transport settings and the sender and recipient addresses.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportConsole, TransportSES:
	case TransportAMQP:
		if c.AMQPURL == "" || c.AMQPQueue == "" {
			return errors.New("amqp transport requires an amqp url and queue")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}

	if _, err := mail.ParseAddress(c.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", c.From, err)
	}

	if len(c.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, to := range c.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient address %q: %w", to, err)
		}
	}

	return nil
}

// Open creates the Mailer for the configured transport.
func Open(ctx context.Context, cfg Config) (Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case TransportSES:
		return NewSESMailerFromConfig(ctx, cfg.SESRegion)
	case TransportAMQP:
		return DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
	default:
		return NewConsoleMailer(), nil
	}
}
