package xpt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// BlockSize is the record unit of the header and descriptor regions.
const BlockSize = 80

// minBufferSize keeps Peek(BlockSize) valid for any configured buffer.
const minBufferSize = 4096

// BlockReader is a forward-only reader over a transport stream that tracks
// how many bytes have been consumed. Every short read surfaces as
// ErrEndOfStream; nothing is retried.
type BlockReader struct {
	r      *bufio.Reader
	offset int64
}

// NewBlockReader wraps r with a buffer of at least size bytes.
func NewBlockReader(r io.Reader, size int) *BlockReader {
	if size < minBufferSize {
		size = minBufferSize
	}
	return &BlockReader{r: bufio.NewReaderSize(r, size)}
}

// Offset returns the number of bytes consumed so far.
func (b *BlockReader) Offset() int64 {
	return b.offset
}

// ReadBlock reads one 80-byte block.
func (b *BlockReader) ReadBlock() ([]byte, error) {
	return b.ReadBytes(BlockSize)
}

// ReadBytes reads exactly n bytes into a new slice.
func (b *BlockReader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := b.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFull fills buf and returns how many bytes were read before a failure.
func (b *BlockReader) ReadFull(buf []byte) (int, error) {
	start := b.offset
	n, err := io.ReadFull(b.r, buf)
	b.offset += int64(n)
	if err != nil {
		return n, b.wrap(err, start, len(buf), n)
	}
	return n, nil
}

// Discard skips n bytes. A short skip is reported like a short read.
func (b *BlockReader) Discard(n int) error {
	start := b.offset
	d, err := b.r.Discard(n)
	b.offset += int64(d)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return b.wrap(err, start, n, d)
	}
	return nil
}

// BlankTail reports whether everything left in the stream is fewer than
// BlockSize blank bytes, and how many bytes are left. It does not consume
// input.
func (b *BlockReader) BlankTail() (n int, ok bool) {
	rest, err := b.r.Peek(BlockSize)
	if err == nil || !errors.Is(err, io.EOF) {
		return len(rest), false
	}
	return len(rest), isBlank(rest)
}

func (b *BlockReader) wrap(err error, start int64, want, got int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: wanted %d bytes at offset %d, got %d: %w", ErrEndOfStream, want, start, got, err)
	}
	return fmt.Errorf("read %d bytes at offset %d: %w", want, start, err)
}

func isBlank(p []byte) bool {
	for _, c := range p {
		if c != ' ' {
			return false
		}
	}
	return true
}

func isEndOfStream(err error) bool {
	return errors.Is(err, ErrEndOfStream)
}
