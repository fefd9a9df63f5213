package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gym_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_emails_sent_total",
			Help: "Lifecycle emails by template and outcome",
		},
		[]string{"type", "status"},
	)

	IdempotencyFailOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_email_idempotency_fail_open_total",
			Help: "Emails sent although the idempotency ledger lookup failed",
		},
		[]string{"type"},
	)

	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_lifecycle_transitions_total",
			Help: "Membership and trainer state transitions applied",
		},
		[]string{"transition"},
	)

	LifecycleErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_lifecycle_errors_total",
			Help: "Per-candidate and per-query failures during lifecycle runs",
		},
		[]string{"stage"},
	)

	LifecycleRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gym_lifecycle_run_duration_seconds",
			Help:    "Duration of a full lifecycle run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	PaymentClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_payment_classifications_total",
			Help: "Payment purpose classifications by purpose and confidence",
		},
		[]string{"purpose", "confidence"},
	)

	TrainerRenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_trainer_renewals_total",
			Help: "Trainer renewal approval attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordIdempotencyFailOpen(emailType string) {
	IdempotencyFailOpenTotal.WithLabelValues(emailType).Inc()
}

func RecordTransition(transition string) {
	LifecycleTransitionsTotal.WithLabelValues(transition).Inc()
}

func RecordLifecycleError(stage string) {
	LifecycleErrorsTotal.WithLabelValues(stage).Inc()
}

func RecordClassification(purpose, confidence string) {
	PaymentClassificationsTotal.WithLabelValues(purpose, confidence).Inc()
}

func RecordTrainerRenewal(outcome string) {
	TrainerRenewalsTotal.WithLabelValues(outcome).Inc()
}

func ObserveLifecycleRun(seconds float64) {
	LifecycleRunDuration.Observe(seconds)
}
