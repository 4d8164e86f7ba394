package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for booking flows.
type SchedulingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	conflictsTotal    *prometheus.CounterVec
	teleconsultsTotal *prometheus.CounterVec
	bookingLatency    *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curaflow",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"operation", "outcome"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curaflow",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Total slot conflicts by kind",
		}, []string{"kind"}),
		teleconsultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curaflow",
			Subsystem: "scheduling",
			Name:      "teleconsults_total",
			Help:      "Total teleconsultation transitions by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "curaflow",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of booking operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.teleconsultsTotal, m.bookingLatency)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(kind).Inc()
}

func (m *SchedulingMetrics) ObserveTeleconsult(outcome string) {
	if m == nil {
		return
	}
	m.teleconsultsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveBookingLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingLatency.WithLabelValues(operation).Observe(seconds)
}
