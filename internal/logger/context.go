package logger

import (
	"context"
	"time"
)

type contextKey struct{}

// LogContext holds the fields every log line of one decode or export
// carries. It travels in a context.Context; the *Ctx functions add its
// fields ahead of the call's own arguments.
type LogContext struct {
	TraceID   string
	SpanID    string
	SessionID string
	RunID     string
	// Source is the input URI: a path, s3://bucket/key or "-".
	Source    string
	Sink      string
	StartTime time.Time
}

// WithContext returns ctx carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext returns the LogContext of ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(contextKey{}).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for the input at source.
func NewLogContext(source string) *LogContext {
	return &LogContext{
		Source:    source,
		StartTime: time.Now(),
	}
}

// Clone returns a copy of lc. A nil receiver returns nil.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// update returns a copy of lc changed by fn. The receiver is never modified.
func (lc *LogContext) update(fn func(*LogContext)) *LogContext {
	c := lc.Clone()
	if c != nil {
		fn(c)
	}
	return c
}

func (lc *LogContext) WithSession(id string) *LogContext {
	return lc.update(func(c *LogContext) { c.SessionID = id })
}

func (lc *LogContext) WithRun(id string) *LogContext {
	return lc.update(func(c *LogContext) { c.RunID = id })
}

func (lc *LogContext) WithSink(sink string) *LogContext {
	return lc.update(func(c *LogContext) { c.Sink = sink })
}

func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	return lc.update(func(c *LogContext) {
		c.TraceID = traceID
		c.SpanID = spanID
	})
}

// DurationMs returns the milliseconds elapsed since StartTime.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

// fields returns the non-empty fields as slog key/value pairs.
func (lc *LogContext) fields() []any {
	pairs := [...]struct{ key, val string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeySessionID, lc.SessionID},
		{KeyRunID, lc.RunID},
		{KeyPath, lc.Source},
		{KeySink, lc.Sink},
	}
	out := make([]any, 0, 2*len(pairs))
	for _, p := range pairs {
		if p.val != "" {
			out = append(out, p.key, p.val)
		}
	}
	return out
}
