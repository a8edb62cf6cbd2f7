// Package metrics exposes Prometheus instrumentation for the analysis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline tracks run outcomes, per-stage latency, and in-flight work for the
// document analysis pipeline.
type Pipeline struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	queueRejects  prometheus.Counter
}

// NewPipeline creates a Pipeline with its own registry.
func NewPipeline() *Pipeline {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "almanac",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by terminal status.",
		},
		[]string{"status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "almanac",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "almanac",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of documents currently being processed.",
		},
	)
	queueRejects := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "almanac",
			Subsystem: "pipeline",
			Name:      "queue_rejects_total",
			Help:      "Analysis requests rejected because all workers were busy.",
		},
	)

	registry.MustRegister(runsTotal, stageDuration, inFlight, queueRejects)

	return &Pipeline{
		registry:      registry,
		runsTotal:     runsTotal,
		stageDuration: stageDuration,
		inFlight:      inFlight,
		queueRejects:  queueRejects,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// RunStarted marks a pipeline run as in flight.
func (p *Pipeline) RunStarted() {
	p.inFlight.Inc()
}

// RunFinished records the terminal status of a run and releases the in-flight
// slot.
func (p *Pipeline) RunFinished(status string) {
	p.inFlight.Dec()
	p.runsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records the duration of a named pipeline stage.
func (p *Pipeline) ObserveStage(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// QueueRejected counts an analysis request turned away at capacity.
func (p *Pipeline) QueueRejected() {
	p.queueRejects.Inc()
}
