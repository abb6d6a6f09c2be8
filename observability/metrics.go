package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type checkinMetrics struct {
	accepted   prometheus.Counter
	rejected   *prometheus.CounterVec
	experience prometheus.Counter
	courses    prometheus.Counter
}

var (
	checkinMetricsOnce sync.Once
	checkinRegistry    *checkinMetrics
)

// Checkin returns the lazily-initialised metrics registry tracking ledger activity.
func Checkin() *checkinMetrics {
	checkinMetricsOnce.Do(func() {
		checkinRegistry = &checkinMetrics{
			accepted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "courseledger",
				Subsystem: "checkin",
				Name:      "accepted_total",
				Help:      "Count of accepted daily check-ins.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "courseledger",
				Subsystem: "checkin",
				Name:      "rejected_total",
				Help:      "Count of rejected check-in submissions segmented by reason.",
			}, []string{"reason"}),
			experience: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "courseledger",
				Subsystem: "checkin",
				Name:      "experience_granted_total",
				Help:      "Total experience granted through daily check-ins.",
			}),
			courses: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "courseledger",
				Subsystem: "courses",
				Name:      "issued_total",
				Help:      "Count of issued course credentials.",
			}),
		}
		prometheus.MustRegister(
			checkinRegistry.accepted,
			checkinRegistry.rejected,
			checkinRegistry.experience,
			checkinRegistry.courses,
		)
	})
	return checkinRegistry
}

// RecordAccepted increments the accepted counter and adds the granted reward.
func (m *checkinMetrics) RecordAccepted(reward uint64) {
	if m == nil {
		return
	}
	m.accepted.Inc()
	m.experience.Add(float64(reward))
}

// RecordRejected increments the rejection counter for the supplied reason.
func (m *checkinMetrics) RecordRejected(reason string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(reason))
	if normalized == "" {
		normalized = "unknown"
	}
	m.rejected.WithLabelValues(normalized).Inc()
}

// RecordCourseIssued increments the issuance counter.
func (m *checkinMetrics) RecordCourseIssued() {
	if m == nil {
		return
	}
	m.courses.Inc()
}
