package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

const charsetUTF8 = "UTF-8"

// SESAPI is the subset of the SES v2 client used to send mail.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends messages with Amazon SES.
type SESMailer struct {
	client SESAPI
}

func NewSESMailer(client SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

// NewSESMailerFromConfig loads the default AWS configuration, overriding the region when set.
func NewSESMailerFromConfig(ctx context.Context, region string) (*SESMailer, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESMailer(sesv2.NewFromConfig(awsConfig)), nil
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Debug().Str("message_id", aws.ToString(out.MessageId)).Msg("Sent email with SES")

	return nil
}

func (m *SESMailer) Close() error {
	return nil
}
