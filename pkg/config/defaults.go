package config

import (
	"strings"

	"github.com/marmos91/xptkit/internal/bytesize"
	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/export/sqlsink"
	"github.com/marmos91/xptkit/pkg/xpt"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyDecodeDefaults(&cfg.Decode)
	applyExportDefaults(&cfg.Export)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space"}
	}
}

// applyMetricsDefaults sets the metrics port when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyDecodeDefaults sets reader defaults.
func applyDecodeDefaults(cfg *DecodeConfig) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = bytesize.ByteSize(xpt.DefaultBufferSize)
	}
	if cfg.MaxRecordLength == 0 {
		cfg.MaxRecordLength = bytesize.ByteSize(xpt.DefaultMaxRecordLength)
	}
	if cfg.SkipTrailingPadding == nil {
		skip := true
		cfg.SkipTrailingPadding = &skip
	}
	if cfg.MissingAsNaN == nil {
		nan := true
		cfg.MissingAsNaN = &nan
	}
}

// applyExportDefaults sets sink defaults.
func applyExportDefaults(cfg *ExportConfig) {
	cfg.Database.ApplyDefaults()
	cfg.Badger.ApplyDefaults(sqlsink.DataDir())
	if cfg.BatchSize == 0 {
		cfg.BatchSize = export.DefaultBatchSize
	}
}

// GetDefaultConfig returns a Config with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
