package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurring_batch_runs_total",
			Help: "Total number of recurring donation batch runs",
		},
	)

	BatchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recurring_batch_run_duration_seconds",
			Help:    "Duration of one recurring donation batch run",
			Buckets: prometheus.DefBuckets,
		},
	)

	DueSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recurring_due_subscriptions",
			Help: "Number of due subscriptions observed by the last batch run",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_settlements_total",
			Help: "Total number of settlement attempts by outcome",
		},
		[]string{"outcome"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_subscriptions_created_total",
			Help: "Total number of recurring donation subscriptions created",
		},
		[]string{"frequency"},
	)
)
