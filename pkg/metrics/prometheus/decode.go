// Package prometheus implements the xptkit metrics interfaces with
// client_golang. Importing it registers the constructors in pkg/metrics.
package prometheus

import (
	"time"

	"github.com/marmos91/xptkit/pkg/metrics"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterDecodeMetricsConstructor(NewDecodeMetrics)
	metrics.RegisterExportMetricsConstructor(NewExportMetrics)
	metrics.RegisterS3MetricsConstructor(NewS3Metrics)
}

// decodeMetrics is the Prometheus implementation of xpt.DecodeMetrics.
type decodeMetrics struct {
	headersTotal    *prometheus.CounterVec
	headersDuration prometheus.Histogram
	variables       prometheus.Histogram
	rowsTotal       prometheus.Counter
	bytesTotal      prometheus.Counter
	failuresTotal   *prometheus.CounterVec
}

// NewDecodeMetrics creates the decode metrics on the shared registry.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDecodeMetrics() xpt.DecodeMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &decodeMetrics{
		headersTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "xpt_headers_read_total",
				Help: "Total number of header reads by status",
			},
			[]string{"status"},
		),
		headersDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "xpt_headers_read_duration_milliseconds",
				Help: "Duration of header and descriptor parsing in milliseconds",
				Buckets: []float64{
					0.1, // in-memory fixtures
					1,
					10,
					100, // cold S3 reads
					1000,
				},
			},
		),
		variables: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "xpt_dataset_variables",
				Help:    "Distribution of variable counts per dataset",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		rowsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "xpt_rows_decoded_total",
				Help: "Total number of observation records decoded",
			},
		),
		bytesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "xpt_row_bytes_total",
				Help: "Total bytes of observation records decoded",
			},
		),
		failuresTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "xpt_row_failures_total",
				Help: "Total number of failed row reads by reason",
			},
			[]string{"reason"}, // io, truncated, coercion
		),
	}
}

func (m *decodeMetrics) ObserveHeaders(duration time.Duration, variables int, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.headersTotal.WithLabelValues(status).Inc()
	m.headersDuration.Observe(duration.Seconds() * 1000)
	if err == nil {
		m.variables.Observe(float64(variables))
	}
}

func (m *decodeMetrics) RecordRow(bytes int) {
	if m == nil {
		return
	}
	m.rowsTotal.Inc()
	m.bytesTotal.Add(float64(bytes))
}

func (m *decodeMetrics) RecordFailure(reason string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(reason).Inc()
}
