package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Publisher is the subset of an AMQP channel used to enqueue mail.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPMailer enqueues messages as JSON on a durable queue for a mail worker to deliver.
type AMQPMailer struct {
	publisher Publisher
	queue     string
	closers   []func() error
}

func NewAMQPMailer(publisher Publisher, queue string) *AMQPMailer {
	return &AMQPMailer{publisher: publisher, queue: queue}
}

// DialAMQP connects to the broker and declares the mail queue.
func DialAMQP(url, queue string) (*AMQPMailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	log.Info().Str("queue", queue).Msg("Connected to amqp broker")

	m := NewAMQPMailer(ch, queue)
	m.closers = []func() error{ch.Close, conn.Close}
	return m, nil
}

func (m *AMQPMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	// Publish through the default exchange straight to the queue
	err = m.publisher.PublishWithContext(ctx, "", m.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.Must(uuid.NewV7()).String(),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (m *AMQPMailer) Close() error {
	for _, closeFn := range m.closers {
		if err := closeFn(); err != nil {
			return fmt.Errorf("failed to close amqp connection: %w", err)
		}
	}
	m.closers = nil
	return nil
}
