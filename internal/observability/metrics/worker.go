package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	payloadBytes    *prometheus.HistogramVec
}

func NewWorkerMetrics(service string, extra ...prometheus.Collector) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "requests_total",
			Help:      "Total validation requests consumed by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "request_duration_seconds",
			Help:      "Validation request handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "requests_in_flight",
			Help:      "Number of validation requests being handled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	payloadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "request_payload_bytes",
			Help:      "Size of consumed validation request payloads.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, payloadBytes)
	registry.MustRegister(extra...)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		payloadBytes:    payloadBytes,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRequest(service string, size int) {
	m.payloadBytes.WithLabelValues(service).Observe(float64(size))
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishRequest(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
