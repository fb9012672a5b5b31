package metrics

import (
	"github.com/marmos91/xptkit/pkg/xpt"
)

// NewDecodeMetrics returns the Prometheus-backed xpt.DecodeMetrics, or nil
// when metrics are disabled. Pass the result to xpt.WithMetrics.
func NewDecodeMetrics() xpt.DecodeMetrics {
	if !IsEnabled() || newPrometheusDecodeMetrics == nil {
		return nil
	}
	return newPrometheusDecodeMetrics()
}

var newPrometheusDecodeMetrics func() xpt.DecodeMetrics

// RegisterDecodeMetricsConstructor is called by pkg/metrics/prometheus.
func RegisterDecodeMetricsConstructor(constructor func() xpt.DecodeMetrics) {
	newPrometheusDecodeMetrics = constructor
}
