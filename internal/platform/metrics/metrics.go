// Package metrics exposes Prometheus instruments for the doctor portal.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultCached  = "cached"
)

// PortalMetrics counts profile store traffic, gate decisions and backend latency.
// A nil *PortalMetrics is valid and records nothing.
type PortalMetrics struct {
	profileFetches *prometheus.CounterVec
	profileUpdates *prometheus.CounterVec
	gateDecisions  *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// NewPortalMetrics registers the portal instruments with reg, or the default registerer when nil.
func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		profileFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medtik",
			Subsystem: "portal",
			Name:      "profile_fetch_total",
			Help:      "Doctor profile loads by result",
		}, []string{"result"}),
		profileUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medtik",
			Subsystem: "portal",
			Name:      "profile_update_total",
			Help:      "Doctor profile updates by result",
		}, []string{"result"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medtik",
			Subsystem: "portal",
			Name:      "gate_decisions_total",
			Help:      "Doctor area navigation decisions by outcome",
		}, []string{"outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medtik",
			Subsystem: "portal",
			Name:      "backend_request_seconds",
			Help:      "Latency of calls to the medtik backend",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "medtik",
			Subsystem: "portal",
			Name:      "active_sessions",
			Help:      "Profile stores currently held by the session registry",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.profileFetches, m.profileUpdates, m.gateDecisions, m.backendLatency, m.activeSessions)
	return m
}

func (m *PortalMetrics) ObserveProfileFetch(result string) {
	if m == nil {
		return
	}
	m.profileFetches.WithLabelValues(result).Inc()
}

func (m *PortalMetrics) ObserveProfileUpdate(result string) {
	if m == nil {
		return
	}
	m.profileUpdates.WithLabelValues(result).Inc()
}

func (m *PortalMetrics) ObserveGateDecision(outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

func (m *PortalMetrics) ObserveBackendLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *PortalMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
