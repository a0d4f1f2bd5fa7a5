// Package observability provides Prometheus metrics for the chat client
// and the probe helpers.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ClientRequestsTotal counts chat client requests by operation and status.
	// Operation is "chat", "stream_chat", or "resolve_model"; status is "ok"
	// or "error".
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vllmctl_client_requests_total",
			Help: "Chat client requests",
		},
		[]string{"operation", "status"},
	)

	// ClientRequestDuration records chat client request duration in seconds.
	ClientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vllmctl_client_request_duration_seconds",
			Help:    "Chat client request duration",
			Buckets: LLMBuckets,
		},
		[]string{"operation"},
	)

	// ProbeRequestsTotal counts probe requests by endpoint and outcome.
	// Endpoint is "models" or "chat_completions"; outcome is "ok",
	// "http_error", or "unreachable".
	ProbeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vllmctl_probe_requests_total",
			Help: "Probe requests",
		},
		[]string{"endpoint", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		ClientRequestsTotal,
		ClientRequestDuration,
		ProbeRequestsTotal,
	)
}
