package logger

import (
	"log/slog"
	"time"
)

// ============================================================================
// Standard field keys for structured logging
// Use these constants to ensure consistent field names across the codebase
// ============================================================================

const (
	// ------------------------------------------------------------------------
	// Distributed Tracing
	// ------------------------------------------------------------------------
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID

	// ------------------------------------------------------------------------
	// Input
	// ------------------------------------------------------------------------
	KeyPath     = "path"     // Local file path or source URI
	KeySource   = "source"   // Source kind: file, s3, stdin
	KeyBucket   = "bucket"   // S3 bucket
	KeyKey      = "key"      // S3 object key
	KeyRegion   = "region"   // S3 region
	KeyEndpoint = "endpoint" // Custom S3 endpoint
	KeySize     = "size"     // Object or file size in bytes

	// ------------------------------------------------------------------------
	// Decoding
	// ------------------------------------------------------------------------
	KeySessionID    = "session_id"    // Decode session identifier
	KeyStage        = "stage"         // Header validation stage
	KeyOffset       = "offset"        // Byte offset in the stream
	KeyVariables    = "variables"     // Number of variables
	KeyVariable     = "variable"      // Variable name
	KeyRecordLength = "record_length" // Bytes per observation
	KeyNamestrSize  = "namestr_size"  // Bytes per namestr record
	KeyRows         = "rows"          // Observations decoded

	// ------------------------------------------------------------------------
	// Export
	// ------------------------------------------------------------------------
	KeySink      = "sink"       // Sink type: sqlite, postgres, badger
	KeyTable     = "table"      // Destination table or key prefix
	KeyRunID     = "run_id"     // Import run identifier
	KeyBatchSize = "batch_size" // Rows per write batch
	KeyBatches   = "batches"    // Batches written

	// ------------------------------------------------------------------------
	// Generic
	// ------------------------------------------------------------------------
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyOperation  = "operation"   // Sub-operation name
	KeyCount      = "count"       // Generic item count
)

// ============================================================================
// Field constructors
// ============================================================================

// TraceID returns a slog.Attr for an OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Path returns a slog.Attr for a file path or source URI
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// SessionID returns a slog.Attr for a decode session
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Stage returns a slog.Attr for a header validation stage
func Stage(name string) slog.Attr {
	return slog.String(KeyStage, name)
}

// Offset returns a slog.Attr for a stream offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Variable returns a slog.Attr for a variable name
func Variable(name string) slog.Attr {
	return slog.String(KeyVariable, name)
}

// Rows returns a slog.Attr for a row count
func Rows(n int64) slog.Attr {
	return slog.Int64(KeyRows, n)
}

// Sink returns a slog.Attr for an export sink type
func Sink(name string) slog.Attr {
	return slog.String(KeySink, name)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
