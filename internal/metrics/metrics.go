package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jobscout"

var (
	EmbeddingRequests        *prometheus.CounterVec
	EmbeddingRequestDuration *prometheus.HistogramVec
	EmbeddingRefreshes       *prometheus.CounterVec
	RescanComparisons        *prometheus.CounterVec
	MatchesPersisted         prometheus.Counter
	NotificationDispatches   *prometheus.CounterVec
)

func init() {
	EmbeddingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "provider_requests_total",
			Help:      "Outbound embedding provider calls by outcome",
		},
		[]string{"result"}, // ok, provider_error, malformed, transport_error
	)
	prometheus.MustRegister(EmbeddingRequests)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of embedding provider calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	prometheus.MustRegister(EmbeddingRequestDuration)

	EmbeddingRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "refresh_total",
			Help:      "Embedding cache lookups by owner kind and outcome",
		},
		[]string{"owner_kind", "result"}, // hit, refreshed, error
	)
	prometheus.MustRegister(EmbeddingRefreshes)

	RescanComparisons = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "comparisons_total",
			Help:      "Counterpart comparisons performed during rescans",
		},
		[]string{"result"}, // retained, below_threshold, skipped
	)
	prometheus.MustRegister(RescanComparisons)

	MatchesPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "upserts_total",
			Help:      "Match records written",
		},
	)
	prometheus.MustRegister(MatchesPersisted)

	NotificationDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "dispatch_total",
			Help:      "Notification hand-offs by outcome",
		},
		[]string{"result"}, // sent, failed, skipped
	)
	prometheus.MustRegister(NotificationDispatches)
}
