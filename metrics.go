package pick_place

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts sequencer activity. Each sequencer owns its registry so
// several services in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	Ticks           prometheus.Counter
	SlotsCompleted  prometheus.Counter
	EngageAttempts  *prometheus.CounterVec
	EngageFailures  *prometheus.CounterVec
	ReleaseAttempts *prometheus.CounterVec
	ReleaseFailures *prometheus.CounterVec
	TransformMisses *prometheus.CounterVec
	MotionFailures  prometheus.Counter
}

// NewMetrics creates and registers the sequencer counters.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: "pickplace",
			Subsystem: "sequencer",
			Name:      name,
			Help:      help,
		}
	}

	m := &Metrics{
		registry:        registry,
		Ticks:           prometheus.NewCounter(opts("ticks_total", "Feedback ticks processed")),
		SlotsCompleted:  prometheus.NewCounter(opts("slots_completed_total", "Slots released at their destination")),
		EngageAttempts:  prometheus.NewCounterVec(opts("engage_attempts_total", "Engage commands issued"), []string{"slot"}),
		EngageFailures:  prometheus.NewCounterVec(opts("engage_failures_total", "Engage commands that failed"), []string{"slot"}),
		ReleaseAttempts: prometheus.NewCounterVec(opts("release_attempts_total", "Disengage commands issued"), []string{"slot"}),
		ReleaseFailures: prometheus.NewCounterVec(opts("release_failures_total", "Disengage commands that failed"), []string{"slot"}),
		TransformMisses: prometheus.NewCounterVec(opts("transform_misses_total", "Tolerance checks skipped for lack of a transform"), []string{"frame"}),
		MotionFailures:  prometheus.NewCounter(opts("motion_failures_total", "Motion commands that failed")),
	}

	registry.MustRegister(
		m.Ticks,
		m.SlotsCompleted,
		m.EngageAttempts,
		m.EngageFailures,
		m.ReleaseAttempts,
		m.ReleaseFailures,
		m.TransformMisses,
		m.MotionFailures,
	)
	return m
}

// Registry returns the registry holding the sequencer counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Totals sums every counter family across its labels.
func (m *Metrics) Totals() (map[string]interface{}, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]interface{}, len(families))
	for _, mf := range families {
		var sum float64
		for _, metric := range mf.GetMetric() {
			sum += metric.GetCounter().GetValue()
		}
		totals[mf.GetName()] = sum
	}
	return totals, nil
}
