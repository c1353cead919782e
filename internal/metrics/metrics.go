package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Cascades      *prometheus.CounterVec
	Conflicts     *prometheus.CounterVec
	AlertFailures prometheus.Counter
	ApplyDuration prometheus.Histogram
}

// New registers the engine metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gst_transitions_total",
			Help: "Committed status transitions by entity kind and target status",
		}, []string{"kind", "status"}),
		Cascades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gst_cascades_total",
			Help: "Committed cascade updates by target kind",
		}, []string{"target"}),
		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gst_transition_conflicts_total",
			Help: "Writes rejected by the entity lock or a stale version",
		}, []string{"kind"}),
		AlertFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gst_alerts_failed_total",
			Help: "Post-commit notification attempts that failed",
		}),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gst_apply_duration_seconds",
			Help:    "Duration of atomic compliance units, lock wait included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncTransition(kind, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) IncCascade(target string) {
	if m == nil {
		return
	}
	m.Cascades.WithLabelValues(target).Inc()
}

func (m *Metrics) IncConflict(kind string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncAlertFailure() {
	if m == nil {
		return
	}
	m.AlertFailures.Inc()
}

// ObserveApply records the duration of one unit.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApply(start time.Time) {
	if m == nil {
		return
	}
	m.ApplyDuration.Observe(time.Since(start).Seconds())
}
