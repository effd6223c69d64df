package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports metrics to a Prometheus registerer.
type PrometheusCollector struct {
	records        *prometheus.CounterVec
	conversionTime *prometheus.HistogramVec
	queries        *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	recall         *prometheus.GaugeVec
}

// NewPrometheusCollector registers the annbench metrics on reg. A nil reg
// uses the default registerer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annbench_conversion_records_total",
				Help: "Records processed by the format adapters",
			},
			[]string{"unit", "outcome"},
		),
		conversionTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "annbench_conversion_duration_seconds",
				Help:    "Duration of corpus conversions in seconds",
				Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 1800},
			},
			[]string{"unit"},
		),
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annbench_engine_queries_total",
				Help: "Queries issued against the engine under test",
			},
			[]string{"kind", "status"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "annbench_engine_query_duration_seconds",
				Help:    "Duration of engine queries in seconds",
				Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 20},
			},
			[]string{"kind"},
		),
		recall: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annbench_recall_percent",
				Help: "Last reported recall percentage",
			},
			[]string{"label"},
		),
	}
}

// RecordConversion implements Collector.
func (p *PrometheusCollector) RecordConversion(unit string, converted, skipped int, duration time.Duration) {
	p.records.WithLabelValues(unit, "converted").Add(float64(converted))
	p.records.WithLabelValues(unit, "skipped").Add(float64(skipped))
	p.conversionTime.WithLabelValues(unit).Observe(duration.Seconds())
}

// RecordQuery implements Collector.
func (p *PrometheusCollector) RecordQuery(kind string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.queries.WithLabelValues(kind, status).Inc()
	p.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRecall implements Collector.
func (p *PrometheusCollector) RecordRecall(label string, percent float64) {
	p.recall.WithLabelValues(label).Set(percent)
}
