// ABOUTME: Prometheus metrics for upstream calls and session lifecycle events
// ABOUTME: Collectors are registered on an injected registry; a nil *Metrics is a no-op

package metrics

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Session lifecycle event labels
const (
	EventLoginSuccess   = "login_success"
	EventLoginFailure   = "login_failure"
	EventRefreshSuccess = "refresh_success"
	EventRefreshFailure = "refresh_failure"
	EventLogout         = "logout"
	EventExpired        = "expired"
)

// Metrics holds the BFF collectors. Methods are safe to call on a nil receiver
// so components can be constructed without metrics in tests.
type Metrics struct {
	upstreamRequests  *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	transportFailures *prometheus.CounterVec
	sessionEvents     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bff_upstream_requests_total",
			Help: "Upstream API calls by operation and response status code.",
		}, []string{"operation", "code"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bff_upstream_request_duration_seconds",
			Help:    "Latency of upstream API calls by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		transportFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bff_upstream_transport_failures_total",
			Help: "Upstream API calls that never produced a response.",
		}, []string{"operation"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bff_session_events_total",
			Help: "Session lifecycle events (login, refresh, logout, expiry).",
		}, []string{"event"}),
	}

	if reg == nil {
		slog.Error("Prometheus registry is nil, metrics will not be exported")
		return m
	}

	for _, c := range []prometheus.Collector{
		m.upstreamRequests,
		m.upstreamDuration,
		m.transportFailures,
		m.sessionEvents,
	} {
		if err := reg.Register(c); err != nil {
			slog.Warn("Failed to register metric", "error", err)
		}
	}

	return m
}

// ObserveUpstream records one completed upstream round trip.
func (m *Metrics) ObserveUpstream(operation string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(operation, strconv.Itoa(code)).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// TransportFailure records an upstream call that failed before a response.
func (m *Metrics) TransportFailure(operation string) {
	if m == nil {
		return
	}
	m.transportFailures.WithLabelValues(operation).Inc()
}

// SessionEvent records a session lifecycle event.
func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(event).Inc()
}
