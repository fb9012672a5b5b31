package prometheus

import (
	"time"

	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// exportMetrics is the Prometheus implementation of export.Metrics.
type exportMetrics struct {
	batchesTotal  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	rowsWritten   *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewExportMetrics creates the export metrics on the shared registry.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewExportMetrics() export.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &exportMetrics{
		batchesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "xpt_export_batches_total",
				Help: "Total number of batches written by sink and status",
			},
			[]string{"sink", "status"},
		),
		batchDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "xpt_export_batch_duration_milliseconds",
				Help: "Duration of batch writes in milliseconds",
				Buckets: []float64{
					1,  // badger
					10, // sqlite
					50, // local postgres
					100,
					500,
					1000,
					5000, // remote postgres, large batches
				},
			},
			[]string{"sink"},
		),
		rowsWritten: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "xpt_export_rows_written_total",
				Help: "Total number of rows written by sink",
			},
			[]string{"sink"},
		),
		runsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "xpt_export_runs_total",
				Help: "Total number of export runs by sink and status",
			},
			[]string{"sink", "status"},
		),
		runDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xpt_export_run_duration_seconds",
				Help:    "Duration of export runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
			},
			[]string{"sink"},
		),
	}
}

func (m *exportMetrics) ObserveBatch(sink string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.batchesTotal.WithLabelValues(sink, status).Inc()
	m.batchDuration.WithLabelValues(sink).Observe(duration.Seconds() * 1000)
	if err == nil && rows > 0 {
		m.rowsWritten.WithLabelValues(sink).Add(float64(rows))
	}
}

func (m *exportMetrics) RecordRun(sink, status string, rows int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(sink, status).Inc()
	m.runDuration.WithLabelValues(sink).Observe(duration.Seconds())
}
