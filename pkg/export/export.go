// Package export streams decoded observations into a Sink in batches and
// records the outcome of each run.
//
// Sinks live in sub-packages: sqlsink writes to SQLite or PostgreSQL through
// gorm, kvsink writes to a Badger directory.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/internal/telemetry"
	"github.com/marmos91/xptkit/pkg/xpt"
)

// DefaultBatchSize is the number of rows written per sink call.
const DefaultBatchSize = 500

// Run states.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrTableExists is returned by sinks when the destination already holds
// data and replacing it was not requested.
var ErrTableExists = errors.New("destination table already exists")

// Sink is a destination for decoded rows.
type Sink interface {
	// Name identifies the sink in logs, metrics and run records.
	Name() string

	// Begin prepares the destination for run. The variables and table name
	// are set; Rows is zero.
	Begin(ctx context.Context, run *Run) error

	// WriteBatch writes rows in order.
	WriteBatch(ctx context.Context, run *Run, rows []xpt.Row) error

	// End records the outcome. It is called after a successful Begin even
	// when the export failed, in which case run.Err is set.
	End(ctx context.Context, run *Run) error

	// Close releases the destination.
	Close() error
}

// Metrics receives export observations. A nil Metrics disables collection.
type Metrics interface {
	ObserveBatch(sink string, rows int, duration time.Duration, err error)
	RecordRun(sink, status string, rows int64, duration time.Duration)
}

// Options tune an export.
type Options struct {
	// BatchSize is the number of rows per WriteBatch. Zero means DefaultBatchSize.
	BatchSize int

	// Limit stops after this many rows. Zero means no limit.
	Limit int64

	// Metrics, when non-nil, receives batch and run observations.
	Metrics Metrics
}

// Run describes one export.
type Run struct {
	ID           string
	Source       string
	Table        string
	Variables    []xpt.Variable
	RecordLength int
	Rows         int64
	Batches      int
	StartedAt    time.Time
	FinishedAt   time.Time
	Err          error
}

// Status returns the run state.
func (r *Run) Status() string {
	switch {
	case r.Err != nil:
		return StatusFailed
	case r.FinishedAt.IsZero():
		return StatusRunning
	default:
		return StatusCompleted
	}
}

// Duration returns how long the run took, or has taken so far.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Export reads every remaining row of s and writes it to sink. Headers are
// read first if the caller has not done so. The returned Run is non-nil
// whenever the sink was reached, including on failure.
func Export(ctx context.Context, s *xpt.Session, sink Sink, source, table string, opts Options) (*Run, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if table == "" {
		return nil, fmt.Errorf("export: empty table name")
	}

	run := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Table:     table,
		StartedAt: time.Now(),
	}

	ctx, span := telemetry.StartExportSpan(ctx, telemetry.SpanExport, sink.Name(),
		telemetry.Table(table), telemetry.RunID(run.ID), telemetry.Source(source))
	defer span.End()

	lc := logger.NewLogContext(source).WithSession(s.ID()).WithRun(run.ID).WithSink(sink.Name()).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	if s.Table() == nil {
		if err := s.ReadHeaders(); err != nil {
			telemetry.RecordError(ctx, err)
			return nil, err
		}
	}
	run.Variables = s.Variables()
	run.RecordLength = s.RecordLength()
	telemetry.SetAttributes(ctx, telemetry.Variables(len(run.Variables)), telemetry.RecordLength(run.RecordLength))

	if err := sink.Begin(ctx, run); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("%s: begin: %w", sink.Name(), err)
	}
	logger.InfoCtx(ctx, "Export started", logger.KeyTable, table,
		logger.KeyVariables, len(run.Variables), logger.KeyBatchSize, opts.BatchSize)

	run.Err = copyRows(ctx, s, sink, run, opts)
	run.FinishedAt = time.Now()

	if err := sink.End(ctx, run); err != nil {
		run.Err = errors.Join(run.Err, fmt.Errorf("%s: end: %w", sink.Name(), err))
	}

	if opts.Metrics != nil {
		opts.Metrics.RecordRun(sink.Name(), run.Status(), run.Rows, run.Duration())
	}
	telemetry.SetAttributes(ctx, telemetry.Rows(run.Rows))

	if run.Err != nil {
		telemetry.RecordError(ctx, run.Err)
		logger.ErrorCtx(ctx, "Export failed", logger.KeyRows, run.Rows, logger.Err(run.Err))
		return run, run.Err
	}

	logger.InfoCtx(ctx, "Export finished", logger.KeyRows, run.Rows,
		logger.KeyBatches, run.Batches, logger.DurationMs(run.Duration()))
	return run, nil
}

func copyRows(ctx context.Context, s *xpt.Session, sink Sink, run *Run, opts Options) error {
	batch := make([]xpt.Row, 0, opts.BatchSize)

	for {
		if opts.Limit > 0 && run.Rows+int64(len(batch)) >= opts.Limit {
			break
		}

		row, ok, err := s.ReadRow()
		if err != nil {
			if ferr := flush(ctx, sink, run, batch, opts.Metrics); ferr != nil {
				return errors.Join(err, ferr)
			}
			return err
		}
		if !ok {
			break
		}

		batch = append(batch, row)
		if len(batch) < opts.BatchSize {
			continue
		}

		if err := flush(ctx, sink, run, batch, opts.Metrics); err != nil {
			return err
		}
		batch = batch[:0]

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return flush(ctx, sink, run, batch, opts.Metrics)
}

func flush(ctx context.Context, sink Sink, run *Run, batch []xpt.Row, m Metrics) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, span := telemetry.StartExportSpan(ctx, telemetry.SpanExportBatch, sink.Name(),
		telemetry.Rows(int64(len(batch))))
	defer span.End()

	start := time.Now()
	err := sink.WriteBatch(ctx, run, batch)
	if m != nil {
		m.ObserveBatch(sink.Name(), len(batch), time.Since(start), err)
	}
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("%s: write batch at row %d: %w", sink.Name(), run.Rows, err)
	}

	run.Rows += int64(len(batch))
	run.Batches++
	logger.DebugCtx(ctx, "Wrote batch", logger.KeyRows, run.Rows, logger.KeyCount, len(batch))
	return nil
}

// TableName turns a dataset name into a lower-case identifier made of
// letters, digits and underscores, safe for both sinks.
func TableName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "t_" + out
	}
	return out
}
