package metrics

import (
	"time"

	"github.com/marmos91/xptkit/pkg/source"
)

// NewS3Metrics returns the Prometheus-backed source.S3Metrics, or nil when
// metrics are disabled. A nil value makes the S3 source skip collection.
func NewS3Metrics() source.S3Metrics {
	if !IsEnabled() || newPrometheusS3Metrics == nil {
		return nil
	}
	return newPrometheusS3Metrics()
}

var newPrometheusS3Metrics func() source.S3Metrics

// RegisterS3MetricsConstructor is called by pkg/metrics/prometheus.
func RegisterS3MetricsConstructor(constructor func() source.S3Metrics) {
	newPrometheusS3Metrics = constructor
}

// ObserveOperation records an S3 call on m, which may be nil.
//
//	start := time.Now()
//	out, err := client.GetObject(ctx, input)
//	metrics.ObserveOperation(m, "GetObject", time.Since(start), err)
func ObserveOperation(m source.S3Metrics, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveOperation(operation, duration, err)
	}
}

// RecordBytes records bytes read from S3 on m, which may be nil.
func RecordBytes(m source.S3Metrics, bytes int64) {
	if m != nil {
		m.RecordBytes(bytes)
	}
}
