package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "healthbuddy_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LLMCompletions counts LLM completions by persona and outcome (ok, empty, error).
	LLMCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_llm_completions_total",
		Help: "Total number of LLM completion calls",
	}, []string{"persona", "outcome"})

	// LLMLatency records LLM completion latency by persona.
	LLMLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "healthbuddy_llm_latency_seconds",
		Help:    "LLM completion latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"persona"})

	// SupportEscalations counts support ticket agent transitions.
	SupportEscalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_support_escalations_total",
		Help: "Total number of support ticket escalations",
	}, []string{"from", "to"})

	// PaymentWebhookEvents counts payment webhook deliveries by event type and result.
	PaymentWebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_payment_webhook_events_total",
		Help: "Total number of payment webhook events received",
	}, []string{"event_type", "result"})

	// CacheLookups counts read-through cache lookups by key prefix and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_cache_lookups_total",
		Help: "Total number of cache lookups",
	}, []string{"prefix", "result"})

	// ScheduledJobRuns counts scheduler job executions by job and outcome.
	ScheduledJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_scheduled_job_runs_total",
		Help: "Total number of scheduled job runs",
	}, []string{"job", "outcome"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthbuddy_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbuddy_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackLLM returns a function that records completion latency and outcome for a persona.
func TrackLLM(persona string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		LLMLatency.WithLabelValues(persona).Observe(time.Since(start).Seconds())
		LLMCompletions.WithLabelValues(persona, outcome).Inc()
	}
}
