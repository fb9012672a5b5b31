package source

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/internal/telemetry"
	"github.com/marmos91/xptkit/pkg/xpt"
)

// Opener opens inputs of any Kind. The S3 client is created on first use.
type Opener struct {
	s3cfg   S3Config
	metrics S3Metrics
	stdin   io.Reader

	mu     sync.Mutex
	client S3API
}

// Option configures an Opener.
type Option func(*Opener)

// WithS3Config sets the configuration used to build the S3 client.
func WithS3Config(cfg S3Config) Option {
	return func(o *Opener) { o.s3cfg = cfg }
}

// WithS3Client uses client instead of building one from the configuration.
func WithS3Client(client S3API) Option {
	return func(o *Opener) { o.client = client }
}

// WithS3Metrics attaches S3 metrics.
func WithS3Metrics(m S3Metrics) Option {
	return func(o *Opener) { o.metrics = m }
}

// WithStdin replaces os.Stdin for "-" inputs.
func WithStdin(r io.Reader) Option {
	return func(o *Opener) { o.stdin = r }
}

// NewOpener creates an Opener.
func NewOpener(opts ...Option) *Opener {
	o := &Opener{stdin: os.Stdin}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Opener) s3Client(ctx context.Context) (S3API, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client == nil {
		client, err := NewS3Client(ctx, o.s3cfg)
		if err != nil {
			return nil, err
		}
		o.client = client
	}
	return o.client, nil
}

// Open returns a reader for uri. The caller closes it.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	switch loc.Kind {
	case KindStdin:
		return io.NopCloser(o.stdin), nil
	case KindS3:
		client, err := o.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return getObject(ctx, client, o.metrics, loc.Bucket, loc.Key)
	default:
		return os.Open(loc.Path)
	}
}

// OpenSession opens uri and starts a decode session on it. Failures to
// reach the input are reported as *xpt.OpenError.
func (o *Opener) OpenSession(ctx context.Context, uri string, opts ...xpt.Option) (*xpt.Session, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, &xpt.OpenError{Path: uri, Err: err}
	}

	ctx, span := telemetry.StartDecodeSpan(ctx, telemetry.SpanOpen, uri, telemetry.SourceKind(string(loc.Kind)))
	defer span.End()

	if loc.Kind == KindFile {
		s, err := xpt.Open(loc.Path, opts...)
		if err != nil {
			telemetry.RecordError(ctx, err)
			return nil, err
		}
		return s, nil
	}

	rc, err := o.Open(ctx, uri)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, &xpt.OpenError{Path: uri, Err: err}
	}

	s := xpt.NewSession(rc, opts...)
	telemetry.SetAttributes(ctx, telemetry.SessionID(s.ID()))
	logger.DebugCtx(ctx, "Opened input", logger.KeyPath, uri, logger.KeySessionID, s.ID())
	return s, nil
}
