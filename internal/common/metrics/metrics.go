// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_applications_submitted_total",
			Help: "Total number of financing applications entering live auction",
		},
	)

	OffersSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_offers_submitted_total",
			Help: "Total number of bank offers accepted into the ledger",
		},
	)

	OffersRefused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_offers_refused_total",
			Help: "Offers refused before persistence, by reason",
		},
		[]string{"reason"},
	)

	AuctionsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_settled_total",
			Help: "Auctions reaching a terminal state, by outcome",
		},
		[]string{"outcome"},
	)

	AuctionsExpiredBySweep = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_sweep_expired_total",
			Help: "Live auctions expired by the periodic sweep",
		},
	)
)
