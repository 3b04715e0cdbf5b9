// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueNumbersIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_numbers_issued_total",
			Help: "Total queue numbers issued per branch and channel group",
		},
		[]string{"branch_id", "channel_group"},
	)

	QueueCounterRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_counter_retries_total",
			Help: "Total retries on queue counter conflicts",
		},
	)

	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_runs_total",
			Help: "Total aggregation job runs by type and outcome",
		},
		[]string{"job_type", "status"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "aggregation_duration_seconds",
			Help: "Duration of aggregation jobs in seconds",
		},
		[]string{"job_type"},
	)

	BranchesAggregated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branches_aggregated_total",
			Help: "Branches processed by the daily aggregator by outcome",
		},
		[]string{"status"},
	)

	StatisticsQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statistics_queries_total",
			Help: "Statistics read queries by endpoint",
		},
		[]string{"endpoint"},
	)
)
