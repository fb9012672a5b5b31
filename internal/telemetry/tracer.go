package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrSource       = "xpt.source"        // Input URI
	AttrSourceKind   = "xpt.source.kind"   // file, s3, stdin
	AttrSessionID    = "xpt.session_id"    // Decode session
	AttrVariables    = "xpt.variables"     // Variable count
	AttrRecordLength = "xpt.record_length" // Bytes per observation
	AttrNamestrSize  = "xpt.namestr_size"  // Bytes per namestr record
	AttrRows         = "xpt.rows"          // Rows decoded or written

	AttrSink      = "export.sink"       // sqlite, postgres, badger
	AttrTable     = "export.table"      // Destination table or key prefix
	AttrRunID     = "export.run_id"     // Import run ID
	AttrBatchSize = "export.batch_size" // Rows per batch

	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
	AttrRegion = "storage.region"
)

// Span names.
const (
	SpanOpen        = "xpt.open"
	SpanReadHeaders = "xpt.read_headers"
	SpanDump        = "xpt.dump"
	SpanExport      = "export.run"
	SpanExportBatch = "export.batch"
	SpanS3Get       = "s3.GetObject"
)

// Source returns an attribute for an input URI
func Source(uri string) attribute.KeyValue {
	return attribute.String(AttrSource, uri)
}

// SourceKind returns an attribute for the input kind
func SourceKind(kind string) attribute.KeyValue {
	return attribute.String(AttrSourceKind, kind)
}

// SessionID returns an attribute for a decode session
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// Variables returns an attribute for the variable count
func Variables(n int) attribute.KeyValue {
	return attribute.Int(AttrVariables, n)
}

// RecordLength returns an attribute for the record length
func RecordLength(n int) attribute.KeyValue {
	return attribute.Int(AttrRecordLength, n)
}

// Rows returns an attribute for a row count
func Rows(n int64) attribute.KeyValue {
	return attribute.Int64(AttrRows, n)
}

// Sink returns an attribute for the export sink type
func Sink(name string) attribute.KeyValue {
	return attribute.String(AttrSink, name)
}

// Table returns an attribute for the destination table
func Table(name string) attribute.KeyValue {
	return attribute.String(AttrTable, name)
}

// RunID returns an attribute for the import run ID
func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

// Bucket returns an attribute for an S3 bucket
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// Key returns an attribute for an S3 object key
func Key(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartDecodeSpan starts a span for a decode step of the given input
func StartDecodeSpan(ctx context.Context, name, source string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Source(source)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}

// StartExportSpan starts a span for a sink operation
func StartExportSpan(ctx context.Context, name, sink string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Sink(sink)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}

// StartS3Span starts a client span for an S3 call
func StartS3Span(ctx context.Context, name, bucket, key string) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(Bucket(bucket), Key(key)),
	)
}
