package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

const namespace = "tdr"

// ValidationMetrics records engine run outcomes. It implements
// ports.ValidationObserver and is registered through Collectors.
type ValidationMetrics struct {
	service string

	runsTotal          *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	overallConsistency *prometheus.HistogramVec
	discrepanciesTotal *prometheus.CounterVec
	comparisonsTotal   *prometheus.CounterVec
}

func NewValidationMetrics(service string) *ValidationMetrics {
	return &ValidationMetrics{
		service: service,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "validation",
				Name:      "runs_total",
				Help:      "Total validation runs by outcome.",
			},
			[]string{"service", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "validation",
				Name:      "run_duration_seconds",
				Help:      "Engine run duration in seconds.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"service"},
		),
		overallConsistency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "validation",
				Name:      "overall_consistency_percent",
				Help:      "Distribution of report overall consistency.",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"service"},
		),
		discrepanciesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "validation",
				Name:      "discrepancies_total",
				Help:      "Critical discrepancies reported, by severity.",
			},
			[]string{"service", "severity"},
		),
		comparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "validation",
				Name:      "comparisons_total",
				Help:      "Comparison records produced, by match status.",
			},
			[]string{"service", "status"},
		),
	}
}

func (m *ValidationMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runDuration,
		m.overallConsistency,
		m.discrepanciesTotal,
		m.comparisonsTotal,
	}
}

func (m *ValidationMetrics) ObserveValidation(report *domain.ValidationReport, duration time.Duration, err error) {
	m.runDuration.WithLabelValues(m.service).Observe(duration.Seconds())
	if err != nil {
		m.runsTotal.WithLabelValues(m.service, outcome(err)).Inc()
		return
	}
	m.runsTotal.WithLabelValues(m.service, "success").Inc()
	if report == nil {
		return
	}
	m.overallConsistency.WithLabelValues(m.service).Observe(report.Metrics.OverallConsistency)
	for _, d := range report.CriticalDiscrepancies {
		m.discrepanciesTotal.WithLabelValues(m.service, string(d.Severity)).Inc()
	}
	for _, rec := range report.FieldComparisons {
		m.comparisonsTotal.WithLabelValues(m.service, string(rec.Status)).Inc()
	}
}

func outcome(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrAggregationInconsistency):
		return "inconsistency"
	default:
		return "error"
	}
}
