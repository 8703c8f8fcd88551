package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerCredits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_credits_total",
		Help: "Ledger credit operations by result (applied or duplicate).",
	}, []string{"result"})

	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_version_conflicts_total",
		Help: "Optimistic-lock conflicts seen while mutating balances.",
	})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Provider webhook events by type and result (applied or duplicate).",
	}, []string{"type", "result"})

	Finalizations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competition_finalizations_total",
		Help: "Competitions finalized.",
	})

	PayoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_attempts_total",
		Help: "Outbound payout attempts by outcome.",
	}, []string{"outcome"})
)
