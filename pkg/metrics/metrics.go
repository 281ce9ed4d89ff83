package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	NavigationEventsTotal *prometheus.CounterVec   // outcome: probed, subframe, inactive_tab, no_tab, error
	ProbesTotal           *prometheus.CounterVec   // result: dead, alive, error
	SubmissionsTotal      *prometheus.CounterVec   // origin: auto, manual; status: success, failure
	SubmissionDuration    *prometheus.HistogramVec // origin
	MessagesTotal         *prometheus.CounterVec   // action

	VerifyResultsTotal  *prometheus.CounterVec // result: dead, alive, error
	ArchiveResultsTotal *prometheus.CounterVec // result: archived, no_snapshot, skipped, error
	DeadURLsInQueue     prometheus.Gauge
)

var once sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	NavigationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadpage_navigation_events_total",
			Help: "Navigation-completed events by how they were handled.",
		},
		[]string{"outcome"},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadpage_probes_total",
			Help: "Page probes by detection result.",
		},
		[]string{"result"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadpage_submissions_total",
			Help: "Dead URL submissions sent to the collection endpoint.",
		},
		[]string{"origin", "status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deadpage_submission_duration_seconds",
			Help:    "Round trip time of submissions to the collection endpoint.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"origin"},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadpage_messages_total",
			Help: "Messages handled by the background broker.",
		},
		[]string{"action"},
	)

	VerifyResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadpage_verify_results_total",
			Help: "Reported URLs checked by the verifier.",
		},
		[]string{"result"},
	)

	ArchiveResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadpage_archive_results_total",
			Help: "Dead URLs processed by the archive retriever.",
		},
		[]string{"result"},
	)

	DeadURLsInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deadpage_dead_urls_in_queue",
			Help: "Confirmed dead URLs waiting for archive retrieval.",
		},
	)
}
