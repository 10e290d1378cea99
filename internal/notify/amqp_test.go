package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestAMQPMailer_Send(t *testing.T) {
	ctx := context.Background()
	msg := Message{
		From:    "leads@example.com",
		To:      []string{"sales@example.com"},
		Subject: "A lead has been created",
		Body:    "Go to the site to see the new lead",
	}

	publisher := &fakePublisher{}
	mailer := NewAMQPMailer(publisher, "leadtrack-mail")
	require.NoError(t, mailer.Send(ctx, msg))
	require.NoError(t, mailer.Close())

	require.Len(t, publisher.calls, 1)
	call := publisher.calls[0]
	require.Empty(t, call.exchange)
	require.Equal(t, "leadtrack-mail", call.key)
	require.Equal(t, "application/json", call.msg.ContentType)
	require.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
	require.NotEmpty(t, call.msg.MessageId)

	var got Message
	require.NoError(t, json.Unmarshal(call.msg.Body, &got))
	require.Equal(t, msg, got)

	boom := errors.New("channel closed")
	err := NewAMQPMailer(&fakePublisher{err: boom}, "leadtrack-mail").Send(ctx, msg)
	require.ErrorIs(t, err, boom)
}
