// Package metrics provides Prometheus metrics for the name historian.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/name-historian/internal/domain/ports"
)

const defaultNamespace = "historian"

// Recorder implements ports.Metrics and records store timings.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	observations  prometheus.Counter
	imports       *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec
}

var _ ports.Metrics = (*Recorder)(nil)

// Option configures a Recorder.
type Option func(*Recorder)

// WithRegistry registers metrics on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		r.registry = registry
	}
}

// WithNamespace overrides the metric namespace.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = namespace
	}
}

// NewRecorder creates a recorder with its own registry unless one is given.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(r.registry)
	r.observations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "observations_total",
		Help:      "Total number of name observations recorded",
	})
	r.imports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "imports_total",
		Help:      "Total number of history imports by outcome",
	}, []string{"outcome"})
	r.storeDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of history store operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	r.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "store_errors_total",
		Help:      "Total number of failed history store operations",
	}, []string{"op"})

	return r
}

// ObservationsRecorded counts committed observations.
func (r *Recorder) ObservationsRecorded(count int) {
	r.observations.Add(float64(count))
}

// ImportFinished counts one import by outcome.
func (r *Recorder) ImportFinished(outcome string) {
	r.imports.WithLabelValues(outcome).Inc()
}

// StoreOperation records the duration of one store call and whether it failed.
func (r *Recorder) StoreOperation(op string, elapsed time.Duration, err error) {
	r.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		r.storeErrors.WithLabelValues(op).Inc()
	}
}

// Registry returns the registry the metrics are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
