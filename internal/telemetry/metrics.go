// Package telemetry holds the engine's Prometheus collectors and
// OpenTelemetry tracer. Collectors are registered once against a
// configurable registry; recording helpers are safe to call before
// initialization and simply drop the observation.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures collector registration.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// metrics holds the engine collectors.
type metrics struct {
	nativeCalls       *prometheus.CounterVec
	nativeCallSeconds *prometheus.HistogramVec
	flushesTotal      prometheus.Counter
	flushedNodes      prometheus.Counter
	eventsDispatched  *prometheus.CounterVec
	eventsStale       prometheus.Counter
	batchesDropped    prometheus.Counter
	activeSessions    prometheus.Gauge
}

var (
	global     *metrics
	globalOnce sync.Once
)

// InitMetrics registers the engine collectors. Only the first call has
// effect.
func InitMetrics(cfg MetricsConfig) {
	globalOnce.Do(func() {
		if cfg.Namespace == "" {
			cfg.Namespace = "loom"
		}
		if cfg.Registry == nil {
			cfg.Registry = prometheus.DefaultRegisterer
		}
		factory := promauto.With(cfg.Registry)

		global = &metrics{
			nativeCalls: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "native_calls_total",
				Help:      "Total native calls issued, by opcode and status",
			}, []string{"op", "status"}),

			nativeCallSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "native_call_duration_seconds",
				Help:      "Native call round-trip duration in seconds",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),

			flushesTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "flushes_total",
				Help:      "Total commit flushes sent to the native engine",
			}),

			flushedNodes: factory.NewCounter(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "flushed_nodes_total",
				Help:      "Total node records carried by commit flushes",
			}),

			eventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "events_dispatched_total",
				Help:      "Total native events routed into handlers, by type",
			}, []string{"type"}),

			eventsStale: factory.NewCounter(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "events_stale_total",
				Help:      "Total events dropped because the target node no longer exists",
			}),

			batchesDropped: factory.NewCounter(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "event_batches_dropped_total",
				Help:      "Total polled event batches dropped due to decode failure",
			}),

			activeSessions: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "active_sessions",
				Help:      "Number of live native sessions",
			}),
		}
	})
}

// RecordNativeCall records one bridged call.
func RecordNativeCall(op, status string, seconds float64) {
	if global == nil {
		return
	}
	global.nativeCalls.WithLabelValues(op, status).Inc()
	global.nativeCallSeconds.WithLabelValues(op).Observe(seconds)
}

// RecordFlush records one commit flush and its node count.
func RecordFlush(nodes int) {
	if global == nil {
		return
	}
	global.flushesTotal.Inc()
	global.flushedNodes.Add(float64(nodes))
}

// RecordDispatch records one routed event.
func RecordDispatch(eventType string) {
	if global == nil {
		return
	}
	global.eventsDispatched.WithLabelValues(eventType).Inc()
}

// RecordStaleEvent records an event whose target was already gone.
func RecordStaleEvent() {
	if global == nil {
		return
	}
	global.eventsStale.Inc()
}

// RecordBatchDropped records a dropped event batch.
func RecordBatchDropped() {
	if global == nil {
		return
	}
	global.batchesDropped.Inc()
}

// RecordSessionOpen increments the live session gauge.
func RecordSessionOpen() {
	if global == nil {
		return
	}
	global.activeSessions.Inc()
}

// RecordSessionClose decrements the live session gauge.
func RecordSessionClose() {
	if global == nil {
		return
	}
	global.activeSessions.Dec()
}
