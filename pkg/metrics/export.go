package metrics

import (
	"time"

	"github.com/marmos91/xptkit/pkg/export"
)

// NewExportMetrics returns the Prometheus-backed export.Metrics, or nil when
// metrics are disabled.
//
//	metrics.InitRegistry()
//	opts := export.Options{Metrics: metrics.NewExportMetrics()}
func NewExportMetrics() export.Metrics {
	if !IsEnabled() || newPrometheusExportMetrics == nil {
		return nil
	}
	return newPrometheusExportMetrics()
}

var newPrometheusExportMetrics func() export.Metrics

// RegisterExportMetricsConstructor is called by pkg/metrics/prometheus.
func RegisterExportMetricsConstructor(constructor func() export.Metrics) {
	newPrometheusExportMetrics = constructor
}

// ObserveBatch records a sink batch write on m, which may be nil.
func ObserveBatch(m export.Metrics, sink string, rows int, duration time.Duration, err error) {
	if m != nil {
		m.ObserveBatch(sink, rows, duration, err)
	}
}

// RecordRun records a finished export on m, which may be nil.
func RecordRun(m export.Metrics, sink, status string, rows int64, duration time.Duration) {
	if m != nil {
		m.RecordRun(sink, status, rows, duration)
	}
}
