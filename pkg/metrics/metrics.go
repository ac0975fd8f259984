package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brand_agent"

var (
	Analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis results persisted, by outcome (parsed or fallback).",
		},
		[]string{"outcome"},
	)

	MemoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_writes_total",
			Help:      "Interaction memory captures, by status.",
		},
		[]string{"status"},
	)

	PublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Result events that could not be published.",
		},
	)

	Escalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Crisis escalations raised by the agent, by urgency level.",
		},
		[]string{"urgency"},
	)

	Resolutions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Cases resolved with a public closing message.",
		},
	)

	QueueDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_deliveries_total",
			Help:      "Stream deliveries handled by the consumer, by disposition.",
		},
		[]string{"disposition"},
	)
)

const (
	OutcomeParsed   = "parsed"
	OutcomeFallback = "fallback"

	StatusStored  = "stored"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusDropped = "dropped"

	DispositionAcked     = "acked"
	DispositionRejected  = "rejected"
	DispositionPending   = "pending"
	DispositionReclaimed = "reclaimed"
)

func init() {
	prometheus.MustRegister(Analyses)
	prometheus.MustRegister(MemoryWrites)
	prometheus.MustRegister(PublishFailures)
	prometheus.MustRegister(Escalations)
	prometheus.MustRegister(Resolutions)
	prometheus.MustRegister(QueueDeliveries)
}
