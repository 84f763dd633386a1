package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label untuk webhook_deliveries_total.
const (
	OutcomeProcessed    = "processed"
	OutcomeReplayed     = "replayed"
	OutcomeIgnored      = "ignored"
	OutcomeUnknownEvent = "unknown_event"
	OutcomeDuplicate    = "duplicate"
	OutcomeRejected     = "rejected"
	OutcomeMalformed    = "malformed"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

var (
	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pollku",
			Subsystem: "payments",
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	settlementTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pollku",
			Subsystem: "payments",
			Name:      "transaction_transitions_total",
			Help:      "Transaction status transitions applied, by provider and target status.",
		},
		[]string{"provider", "status"},
	)

	pollPropagationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pollku",
			Subsystem: "payments",
			Name:      "poll_propagation_failures_total",
			Help:      "Failed best-effort promoted poll payment_status updates.",
		},
		[]string{"provider"},
	)
)

func ObserveWebhook(provider, outcome string) {
	webhookDeliveries.WithLabelValues(provider, outcome).Inc()
}
