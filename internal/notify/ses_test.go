package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("0100018f-test")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	ctx := context.Background()
	msg := Message{
		From:    "leads@example.com",
		To:      []string{"sales@example.com", "owner@example.com"},
		Subject: "A lead has been created",
		Body:    "Go to the site to see the new lead",
	}

	client := &fakeSES{}
	require.NoError(t, NewSESMailer(client).Send(ctx, msg))

	in := client.input
	require.Equal(t, "leads@example.com", aws.ToString(in.FromEmailAddress))
	require.Equal(t, msg.To, in.Destination.ToAddresses)
	require.Equal(t, msg.Subject, aws.ToString(in.Content.Simple.Subject.Data))
	require.Equal(t, msg.Body, aws.ToString(in.Content.Simple.Body.Text.Data))
	require.Equal(t, "UTF-8", aws.ToString(in.Content.Simple.Body.Text.Charset))
	require.Nil(t, in.Content.Simple.Body.Html)

	boom := errors.New("MessageRejected")
	err := NewSESMailer(&fakeSES{err: boom}).Send(ctx, msg)
	require.ErrorIs(t, err, boom)
}
