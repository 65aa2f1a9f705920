package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequests counts backend API calls by operation and HTTP status.
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibewall_gateway_requests_total",
		Help: "Total number of backend API calls by operation and status",
	}, []string{"operation", "status"})

	// GatewayLatency records backend API call latency by operation.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vibewall_gateway_request_duration_seconds",
		Help:    "Backend API call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibewall_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// StaleResponses counts responses discarded because a newer fetch superseded them.
	StaleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibewall_stale_responses_total",
		Help: "Total number of discarded out-of-date fetch responses",
	}, []string{"list"})

	// ActiveViews is the number of browser tabs holding view state.
	ActiveViews = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vibewall_active_views",
		Help: "Number of sessions with live view state",
	})
)

// GatewayMetrics records one backend API call.
type GatewayMetrics struct{}

// TrackCall returns a function that records the call outcome when called (e.g. defer).
// status is 0 when the request never produced a response.
func (GatewayMetrics) TrackCall(operation string) func(status int) {
	start := time.Now()
	return func(status int) {
		GatewayLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		label := "network_error"
		if status > 0 {
			label = strconv.Itoa(status)
		}
		GatewayRequests.WithLabelValues(operation, label).Inc()
	}
}
