// Package metrics instruments workflow execution with Prometheus collectors.
// The Recorder is optional everywhere it is accepted; a nil Recorder is a
// no-op, so library code never branches on whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder aggregates the engine's Prometheus collectors. Labels stay low
// cardinality: topology and terminal status, never executor ids.
type Recorder struct {
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	turnsAppended    *prometheus.CounterVec
	handoffsTotal    prometheus.Counter
	responderLatency *prometheus.HistogramVec
}

// NewRecorder registers the collectors with reg (use
// prometheus.DefaultRegisterer for the process-wide registry).
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentweave",
			Name:      "runs_total",
			Help:      "Workflow runs by topology and terminal status.",
		}, []string{"topology", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentweave",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of workflow runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"topology"}),
		turnsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentweave",
			Name:      "turns_appended_total",
			Help:      "Turns appended to conversations by topology.",
		}, []string{"topology"}),
		handoffsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "agentweave",
			Name:      "handoff_requests_total",
			Help:      "Validated agent-initiated transfers.",
		}),
		responderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentweave",
			Name:      "responder_latency_seconds",
			Help:      "Latency of external responder calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"outcome"}),
	}
}

// RunCompleted records a finished run with its terminal status
// ("output", "failed" or "cancelled").
func (r *Recorder) RunCompleted(topology, status string, dur time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(topology, status).Inc()
	r.runDuration.WithLabelValues(topology).Observe(dur.Seconds())
}

// TurnAppended records one appended turn.
func (r *Recorder) TurnAppended(topology string) {
	if r == nil {
		return
	}
	r.turnsAppended.WithLabelValues(topology).Inc()
}

// HandoffRequested records one validated transfer.
func (r *Recorder) HandoffRequested() {
	if r == nil {
		return
	}
	r.handoffsTotal.Inc()
}

// ResponderCall records latency and outcome ("ok", "error" or "cancelled")
// of one external responder call.
func (r *Recorder) ResponderCall(outcome string, dur time.Duration) {
	if r == nil {
		return
	}
	r.responderLatency.WithLabelValues(outcome).Observe(dur.Seconds())
}
