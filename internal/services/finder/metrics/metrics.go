// Package metrics defines the Prometheus collectors for the finder service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mlbb_finder"

// Like results.
const (
	LikeInserted  = "inserted"
	LikeDuplicate = "duplicate"
	LikeVanished  = "vanished"
)

// Metrics holds the finder collectors. A nil *Metrics records nothing.
type Metrics struct {
	turns          *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	registrations  prometheus.Counter
	rejectedInputs *prometheus.CounterVec
	likes          *prometheus.CounterVec
	matches        prometheus.Counter
	sessions       *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
	reg            prometheus.Registerer
}

// New registers the finder collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Inbound turns by route",
		}, []string{"route"}),
		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent handling one inbound turn",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "completions_total",
			Help:      "Profiles written by completed registration flows",
		}),
		rejectedInputs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "rejected_inputs_total",
			Help:      "Registration inputs that failed validation, by step",
		}, []string{"step"}),
		likes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "likes_total",
			Help:      "Like actions by result",
		}, []string{"result"}),
		matches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "matches_total",
			Help:      "Mutual likes detected",
		}),
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "sessions_started_total",
			Help:      "Discovery session starts by mode and whether candidates were found",
		}, []string{"mode", "result"}),
		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store operations that could not complete",
		}, []string{"op"}),
	}
}

// RegisterOpenState exposes the number of open registration flows and
// discovery sessions as gauges.
func (m *Metrics) RegisterOpenState(openFlows func() int, openSessions func() int) {
	if m == nil || m.reg == nil {
		return
	}
	factory := promauto.With(m.reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "wizard",
		Name:      "open_flows",
		Help:      "Registration flows currently open",
	}, func() float64 { return float64(openFlows()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "discovery",
		Name:      "open_sessions",
		Help:      "Discovery sessions currently open",
	}, func() float64 { return float64(openSessions()) })
}

// ObserveTurn records one handled turn.
func (m *Metrics) ObserveTurn(route string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(route).Inc()
	m.turnDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RegistrationCompleted counts a written profile.
func (m *Metrics) RegistrationCompleted() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// InputRejected counts a validation failure at step.
func (m *Metrics) InputRejected(step string) {
	if m == nil {
		return
	}
	m.rejectedInputs.WithLabelValues(step).Inc()
}

// Like counts one like action by result.
func (m *Metrics) Like(result string) {
	if m == nil {
		return
	}
	m.likes.WithLabelValues(result).Inc()
}

// Match counts one detected match.
func (m *Metrics) Match() {
	if m == nil {
		return
	}
	m.matches.Inc()
}

// SessionStarted counts a discovery start; empty marks a start with no
// candidates.
func (m *Metrics) SessionStarted(mode string, empty bool) {
	if m == nil {
		return
	}
	result := "started"
	if empty {
		result = "empty"
	}
	m.sessions.WithLabelValues(mode, result).Inc()
}

// StoreError counts a failed store operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}
