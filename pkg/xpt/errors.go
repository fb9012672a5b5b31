package xpt

import (
	"errors"
	"fmt"
)

// Stream errors.
var (
	// ErrEndOfStream is returned by BlockReader when fewer bytes than requested
	// are available. It wraps io.EOF or io.ErrUnexpectedEOF.
	ErrEndOfStream = errors.New("xpt: end of stream")

	// ErrTruncated marks a short read in the middle of a structure (header,
	// descriptor or partial row). Unlike end of data it is always fatal.
	ErrTruncated = errors.New("xpt: file truncated")
)

// Header errors, one per validation stage.
var (
	ErrMissingLibraryHeader     = errors.New("xpt: missing library header")
	ErrMissingMemberHeader      = errors.New("xpt: missing member header")
	ErrMissingDescriptorHeader  = errors.New("xpt: missing descriptor header")
	ErrMissingNamestrHeader     = errors.New("xpt: missing namestr header")
	ErrMissingObservationHeader = errors.New("xpt: missing observation header")

	// ErrMalformedHeader is returned when a header carries the right
	// signature but an unreadable numeric field.
	ErrMalformedHeader = errors.New("xpt: malformed header")
)

// Descriptor errors.
var (
	ErrInvalidDescriptor   = errors.New("xpt: invalid variable descriptor")
	ErrUnknownVariableType = errors.New("xpt: unknown variable type")
)

// Session usage errors.
var (
	ErrHeadersAlreadyRead = errors.New("xpt: headers already read")
	ErrHeadersNotRead     = errors.New("xpt: headers not read")
	ErrSessionClosed      = errors.New("xpt: session closed")
	ErrTooManySlots       = errors.New("xpt: more target slots than variables")
)

// OpenError is returned by Open when the file cannot be opened for reading.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("xpt: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// HeaderError reports a failure while reading the header region. Err is one
// of the stage sentinels, ErrMalformedHeader, ErrInvalidDescriptor or
// ErrTruncated, so callers match it with errors.Is.
type HeaderError struct {
	Stage  Stage
	Offset int64
	Err    error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s stage at offset %d: %v", e.Stage, e.Offset, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// CoercionError is returned by ReadRowInto when a character value cannot be
// parsed as a number.
type CoercionError struct {
	Variable string
	Text     string
	Err      error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("xpt: cannot coerce %s value %q to numeric: %v", e.Variable, e.Text, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }
