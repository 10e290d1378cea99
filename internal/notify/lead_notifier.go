package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

const (
	leadCreatedSubject = "A lead has been created"
	leadCreatedBody    = "Go to the site to see the new lead"
)

// LeadNotifier mails the configured recipients when a lead is created.
type LeadNotifier struct {
	mailer    Mailer
	transport string
	from      string
	to        []string
}

func NewLeadNotifier(mailer Mailer, cfg Config) *LeadNotifier {
	return &LeadNotifier{
		mailer:    mailer,
		transport: cfg.Transport,
		from:      cfg.From,
		to:        cfg.To,
	}
}

func (n *LeadNotifier) LeadCreated(ctx context.Context, lead *models.Lead) error {
	ctx, span := telemetry.Tracer().Start(ctx, "LeadNotifier.LeadCreated")
	defer span.End()

	metrics := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("transport", n.transport))

	start := time.Now()
	err := n.mailer.Send(ctx, Message{
		From:    n.from,
		To:      n.to,
		Subject: leadCreatedSubject,
		Body:    leadCreatedBody,
	})
	metrics.NotificationSendDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		span.RecordError(err)
		metrics.NotificationErrorsTotal.Add(ctx, 1, attrs)
		return err
	}

	metrics.NotificationsSentTotal.Add(ctx, 1, attrs)

	log.Debug().
		Str("lead_id", lead.LeadID.String()).
		Str("org_id", lead.OrgID.String()).
		Msg("Sent lead created notification")

	return nil
}
