package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/wolfeidau/leadtrack"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Lead lifecycle metrics
	LeadsCreatedTotal   metric.Int64Counter
	LeadsUpdatedTotal   metric.Int64Counter
	LeadsDeletedTotal   metric.Int64Counter
	LeadsAssignedTotal  metric.Int64Counter
	LeadsConvertedTotal metric.Int64Counter

	// Category metrics
	CategoryChangesTotal metric.Int64Counter
	ConfigurationErrors  metric.Int64Counter

	// Agent metrics
	AgentsCreatedTotal metric.Int64Counter
	AgentsDeletedTotal metric.Int64Counter

	// Notification metrics
	NotificationsSentTotal   metric.Int64Counter
	NotificationErrorsTotal  metric.Int64Counter
	NotificationSendDuration metric.Float64Histogram

	// Session metrics
	LoginsTotal       metric.Int64Counter
	SignupsTotal      metric.Int64Counter
	TokensIssuedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// Tracer returns the tracer used for application spans.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	// Lead lifecycle metrics
	m.LeadsCreatedTotal, _ = meter.Int64Counter(
		"leadtrack.leads.created.total",
		metric.WithDescription("Total number of leads created"),
		metric.WithUnit("{lead}"),
	)

	m.LeadsUpdatedTotal, _ = meter.Int64Counter(
		"leadtrack.leads.updated.total",
		metric.WithDescription("Total number of lead updates"),
		metric.WithUnit("{lead}"),
	)

	m.LeadsDeletedTotal, _ = meter.Int64Counter(
		"leadtrack.leads.deleted.total",
		metric.WithDescription("Total number of leads deleted"),
		metric.WithUnit("{lead}"),
	)

	m.LeadsAssignedTotal, _ = meter.Int64Counter(
		"leadtrack.leads.assigned.total",
		metric.WithDescription("Total number of leads assigned to an agent"),
		metric.WithUnit("{lead}"),
	)

	m.LeadsConvertedTotal, _ = meter.Int64Counter(
		"leadtrack.leads.converted.total",
		metric.WithDescription("Total number of leads stamped as converted"),
		metric.WithUnit("{lead}"),
	)

	// Category metrics
	m.CategoryChangesTotal, _ = meter.Int64Counter(
		"leadtrack.leads.category_changes.total",
		metric.WithDescription("Total number of lead category changes"),
		metric.WithUnit("{change}"),
	)

	m.ConfigurationErrors, _ = meter.Int64Counter(
		"leadtrack.configuration.errors.total",
		metric.WithDescription("Total number of organisations found without a Converted category"),
		metric.WithUnit("{error}"),
	)

	// Agent metrics
	m.AgentsCreatedTotal, _ = meter.Int64Counter(
		"leadtrack.agents.created.total",
		metric.WithDescription("Total number of agents created"),
		metric.WithUnit("{agent}"),
	)

	m.AgentsDeletedTotal, _ = meter.Int64Counter(
		"leadtrack.agents.deleted.total",
		metric.WithDescription("Total number of agents removed"),
		metric.WithUnit("{agent}"),
	)

	// Notification metrics
	m.NotificationsSentTotal, _ = meter.Int64Counter(
		"leadtrack.notifications.sent.total",
		metric.WithDescription("Total number of notifications delivered to the mail transport"),
		metric.WithUnit("{message}"),
	)

	m.NotificationErrorsTotal, _ = meter.Int64Counter(
		"leadtrack.notifications.errors.total",
		metric.WithDescription("Total number of notifications that failed to send"),
		metric.WithUnit("{error}"),
	)

	m.NotificationSendDuration, _ = meter.Float64Histogram(
		"leadtrack.notifications.send.duration",
		metric.WithDescription("Duration of notification sends"),
		metric.WithUnit("ms"),
	)

	// Session metrics
	m.LoginsTotal, _ = meter.Int64Counter(
		"leadtrack.sessions.logins.total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)

	m.SignupsTotal, _ = meter.Int64Counter(
		"leadtrack.sessions.signups.total",
		metric.WithDescription("Total number of organisations created on first login"),
		metric.WithUnit("{signup}"),
	)

	m.TokensIssuedTotal, _ = meter.Int64Counter(
		"leadtrack.tokens.issued.total",
		metric.WithDescription("Total number of API tokens issued"),
		metric.WithUnit("{token}"),
	)

	return m
}
