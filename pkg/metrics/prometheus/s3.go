package prometheus

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/xptkit/pkg/metrics"
	"github.com/marmos91/xptkit/pkg/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type s3Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesRead         prometheus.Counter
}

// NewS3Metrics creates the S3 input metrics on the shared registry, or
// returns nil when the registry is not initialized.
func NewS3Metrics() source.S3Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	f := promauto.With(metrics.GetRegistry())

	return &s3Metrics{
		operationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xpt_s3_operations_total",
			Help: "S3 requests made to read transport files, by operation and outcome",
		}, []string{"operation", "status"}),
		// Covers time to first byte of GetObject, from a local
		// Localstack (a few ms) to a cross-region bucket (seconds).
		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xpt_s3_operation_duration_seconds",
			Help:    "Latency of S3 requests",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 7),
		}, []string{"operation"}),
		bytesRead: f.NewCounter(prometheus.CounterOpts{
			Name: "xpt_s3_bytes_read_total",
			Help: "Bytes streamed from S3 objects",
		}),
	}
}

func (m *s3Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *s3Metrics) RecordBytes(bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesRead.Add(float64(bytes))
}

// outcome labels a request result. Cancellation is kept apart from
// failures so an interrupted export does not look like an outage.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
