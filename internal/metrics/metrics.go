// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "claimflow"

// Outcome label values.
const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
	OutcomeCompensated  = "compensated"
	OutcomeInconsistent = "inconsistent"
	OutcomeDropped      = "dropped"
)

var (
	// Transitions counts claim and return-request operations by action and outcome.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Workflow operations by action and outcome.",
	}, []string{"action", "outcome"})

	// LedgerOps counts balance mutations by operation and outcome.
	LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Balance ledger operations by operation and outcome.",
	}, []string{"op", "outcome"})

	// Compensations counts rollbacks by operation and whether they succeeded.
	Compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensations_total",
		Help:      "Compensating rollbacks by operation and outcome.",
	}, []string{"op", "outcome"})

	// Notifications counts per-recipient deliveries by sink outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries per recipient by outcome.",
	}, []string{"outcome"})

	// AssignmentsClosed counts money assignments closed by returns.
	AssignmentsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_closed_total",
		Help:      "Money assignments closed by approved returns.",
	})

	// RPCDuration observes handler latency per procedure and code.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC handler latency by procedure and code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})
)
