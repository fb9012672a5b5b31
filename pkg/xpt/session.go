package xpt

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/pkg/bufpool"
)

// Defaults for session options.
const (
	DefaultBufferSize      = 64 << 10
	DefaultMaxRecordLength = 4 << 20
)

// DecodeMetrics receives decode observations. Implementations must be safe
// for concurrent use since sessions may share one instance. A nil
// DecodeMetrics disables collection.
type DecodeMetrics interface {
	// ObserveHeaders records a ReadHeaders call and its outcome.
	ObserveHeaders(duration time.Duration, variables int, err error)

	// RecordRow records one decoded record of the given byte length.
	RecordRow(bytes int)

	// RecordFailure records a failed row read by reason
	// ("io", "truncated", "coercion").
	RecordFailure(reason string)
}

type options struct {
	bufferSize          int
	maxRecordLength     int
	skipTrailingPadding bool
	missingAsNaN        bool
	metrics             DecodeMetrics
	pool                *bufpool.Pool
}

func defaultOptions() options {
	return options{
		bufferSize:          DefaultBufferSize,
		maxRecordLength:     DefaultMaxRecordLength,
		skipTrailingPadding: true,
	}
}

// Option configures a Session.
type Option func(*options)

// WithBufferSize sets the read buffer size.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithMaxRecordLength rejects datasets whose records are longer than n bytes.
// Zero disables the check.
func WithMaxRecordLength(n int) Option {
	return func(o *options) { o.maxRecordLength = n }
}

// WithSkipTrailingPadding controls whether a final all-blank record that
// only precedes blank padding is treated as end of data. Enabled by default.
func WithSkipTrailingPadding(skip bool) Option {
	return func(o *options) { o.skipTrailingPadding = skip }
}

// WithMissingAsNaN decodes SAS missing values (., _ and .A-.Z) as NaN.
func WithMissingAsNaN(enabled bool) Option {
	return func(o *options) { o.missingAsNaN = enabled }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m DecodeMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPool sets the pool record buffers are borrowed from.
func WithPool(p *bufpool.Pool) Option {
	return func(o *options) { o.pool = p }
}

// Metadata holds the raw descriptive records of the file. They are passed
// through as read and never interpreted.
type Metadata struct {
	Library     [][]byte
	Member      [][]byte
	NamestrSize int
}

// Session decodes one transport file. It is a forward-only cursor and is
// not safe for concurrent use.
type Session struct {
	id     string
	br     *BlockReader
	closer io.Closer
	opts   options
	pool   *bufpool.Pool

	attempted bool
	stage     Stage
	table     *Table
	metadata  Metadata
	rows      int64
	done      bool
	closed    bool
}

// Open opens the file at path for decoding. Failures are *OpenError.
func Open(path string, opts ...Option) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if fi, err := f.Stat(); err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: path, Err: err}
	} else if fi.IsDir() {
		_ = f.Close()
		return nil, &OpenError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	s := NewSession(f, opts...)
	logger.Debug("Opened transport file", logger.KeyPath, path, logger.KeySessionID, s.id)
	return s, nil
}

// NewSession decodes from r. If r is an io.Closer, Close closes it.
func NewSession(r io.Reader, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	pool := o.pool
	if pool == nil {
		pool = bufpool.NewPool(nil)
	}

	s := &Session{
		id:   uuid.NewString(),
		br:   NewBlockReader(r, o.bufferSize),
		opts: o,
		pool: pool,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// ReadHeaders validates the header region and parses the variable
// descriptors. It must be called exactly once before any row is read.
// Missing headers are reported as a *HeaderError wrapping the stage's
// sentinel error.
func (s *Session) ReadHeaders() (err error) {
	if s.closed {
		return ErrSessionClosed
	}
	if s.attempted {
		return ErrHeadersAlreadyRead
	}
	s.attempted = true

	start := time.Now()
	defer func() {
		if s.opts.metrics != nil {
			s.opts.metrics.ObserveHeaders(time.Since(start), s.VariableCount(), err)
		}
		if err != nil {
			logger.Debug("Header validation failed",
				logger.KeySessionID, s.id, logger.KeyStage, s.stage.String(), logger.KeyError, err)
		}
	}()

	// Library header and its metadata records.
	if _, err := s.expect(StageLibrary); err != nil {
		return err
	}
	lib, err := readMetadata(s.br, StageLibrary)
	if err != nil {
		return err
	}
	s.metadata.Library = lib

	// Member header carries the namestr record size.
	s.stage = StageMember
	member, err := s.expect(StageMember)
	if err != nil {
		return err
	}
	size, err := namestrSize(member)
	if err != nil {
		return &HeaderError{Stage: StageMember, Offset: s.br.Offset() - BlockSize, Err: err}
	}
	s.metadata.NamestrSize = size

	// Descriptor header and the member metadata records.
	s.stage = StageDescriptor
	if _, err := s.expect(StageDescriptor); err != nil {
		return err
	}
	mem, err := readMetadata(s.br, StageDescriptor)
	if err != nil {
		return err
	}
	s.metadata.Member = mem

	// Namestr header with the variable count, then the descriptors.
	s.stage = StageNamestr
	ns, err := s.expect(StageNamestr)
	if err != nil {
		return err
	}
	count, err := variableCount(ns)
	if err != nil {
		return &HeaderError{Stage: StageNamestr, Offset: s.br.Offset() - BlockSize, Err: err}
	}
	table, err := s.readDescriptors(count, size)
	if err != nil {
		return err
	}

	s.stage = StageObservation
	if _, err := s.expect(StageObservation); err != nil {
		return err
	}

	s.table = table
	s.stage = StageDone
	logger.Debug("Read transport headers",
		logger.KeySessionID, s.id,
		logger.KeyVariables, table.Len(),
		logger.KeyRecordLength, table.RecordLength(),
		logger.KeyNamestrSize, size,
		logger.KeyOffset, s.br.Offset())
	return nil
}

func (s *Session) expect(stage Stage) ([]byte, error) {
	block, err := readHeader(s.br, stage)
	if err == nil {
		logger.Debug("Validated header", logger.KeySessionID, s.id, logger.KeyStage, stage.String())
	}
	return block, err
}

// readDescriptors parses count namestr records of size bytes each and skips
// the padding up to the next block boundary.
func (s *Session) readDescriptors(count, size int) (*Table, error) {
	vars := make([]Variable, 0, count)
	primary := make([]byte, namestrPrimarySize)
	rest := make([]byte, size-namestrPrimarySize)
	var total int64

	for i := 0; i < count; i++ {
		start := s.br.Offset()
		if _, err := s.br.ReadFull(primary); err != nil {
			return nil, &HeaderError{Stage: StageNamestr, Offset: start, Err: truncated(err)}
		}
		if _, err := s.br.ReadFull(rest); err != nil {
			return nil, &HeaderError{Stage: StageNamestr, Offset: start, Err: truncated(err)}
		}
		total += int64(size)

		v, err := parseNamestr(primary, rest)
		if err != nil {
			return nil, &HeaderError{Stage: StageNamestr, Offset: start, Err: err}
		}
		vars = append(vars, v)
	}

	if pad := descriptorPadding(total); pad > 0 {
		start := s.br.Offset()
		if err := s.br.Discard(pad); err != nil {
			return nil, &HeaderError{Stage: StageNamestr, Offset: start, Err: truncated(err)}
		}
	}

	table, err := newTable(vars, s.opts.maxRecordLength)
	if err != nil {
		return nil, &HeaderError{Stage: StageNamestr, Offset: s.br.Offset(), Err: err}
	}
	return table, nil
}

// Variables returns a copy of the variable descriptors in declaration order,
// or nil before ReadHeaders succeeds.
func (s *Session) Variables() []Variable {
	if s.table == nil {
		return nil
	}
	return s.table.Variables()
}

// VariableCount returns the number of variables, or 0 before ReadHeaders.
func (s *Session) VariableCount() int {
	if s.table == nil {
		return 0
	}
	return s.table.Len()
}

// Table returns the descriptor table, or nil before ReadHeaders succeeds.
func (s *Session) Table() *Table { return s.table }

// RecordLength returns the byte length of one observation.
func (s *Session) RecordLength() int {
	if s.table == nil {
		return 0
	}
	return s.table.RecordLength()
}

// Metadata returns the raw library and member records.
func (s *Session) Metadata() Metadata {
	m := Metadata{NamestrSize: s.metadata.NamestrSize}
	for _, r := range s.metadata.Library {
		m.Library = append(m.Library, append([]byte(nil), r...))
	}
	for _, r := range s.metadata.Member {
		m.Member = append(m.Member, append([]byte(nil), r...))
	}
	return m
}

// Offset returns the number of bytes consumed from the stream.
func (s *Session) Offset() int64 { return s.br.Offset() }

// Rows returns the number of records decoded so far.
func (s *Session) Rows() int64 { return s.rows }

// Close releases the underlying stream. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Session) checkReadable() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.table == nil {
		return ErrHeadersNotRead
	}
	return nil
}

func (s *Session) finish() {
	if s.done {
		return
	}
	s.done = true
	logger.Debug("End of data",
		logger.KeySessionID, s.id, logger.KeyRows, s.rows, logger.KeyOffset, s.br.Offset())
}

func (s *Session) fail(reason string) {
	if s.opts.metrics != nil {
		s.opts.metrics.RecordFailure(reason)
	}
}
