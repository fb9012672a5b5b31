package xpt

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage identifies a step of header validation.
type Stage int

const (
	StageLibrary Stage = iota
	StageMember
	StageDescriptor
	StageNamestr
	StageObservation
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageLibrary:
		return "library"
	case StageMember:
		return "member"
	case StageDescriptor:
		return "descriptor"
	case StageNamestr:
		return "namestr"
	case StageObservation:
		return "observation"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Header block layout.
const (
	signatureOffset = 20
	signatureLength = 21

	// NAMESTR header: number of variables.
	countOffset = 53
	countLength = 5

	// MEMBER header: size of one namestr record.
	namestrSizeOffset = 73
	namestrSizeLength = 5
)

// Namestr record sizes.
const (
	NamestrSize    = 140
	NamestrSizeVAX = 136
)

// metadataRecords is the number of 80-byte records following the library
// header and the descriptor header.
const metadataRecords = 2

// signatures maps each stage to the text expected in its header block.
// Read-only after initialization.
var signatures = map[Stage]string{
	StageLibrary:     "LIBRARY HEADER RECORD",
	StageMember:      "MEMBER  HEADER RECORD",
	StageDescriptor:  "DSCRPTR HEADER RECORD",
	StageNamestr:     "NAMESTR HEADER RECORD",
	StageObservation: "OBS     HEADER RECORD",
}

var missingHeader = map[Stage]error{
	StageLibrary:     ErrMissingLibraryHeader,
	StageMember:      ErrMissingMemberHeader,
	StageDescriptor:  ErrMissingDescriptorHeader,
	StageNamestr:     ErrMissingNamestrHeader,
	StageObservation: ErrMissingObservationHeader,
}

// Signature returns the header signature text checked at stage s.
func Signature(s Stage) string {
	return signatures[s]
}

// readHeader reads one header block and checks its signature against stage.
func readHeader(br *BlockReader, stage Stage) ([]byte, error) {
	start := br.Offset()
	block, err := br.ReadBlock()
	if err != nil {
		return nil, &HeaderError{Stage: stage, Offset: start, Err: truncated(err)}
	}
	if !matchSignature(block, stage) {
		return nil, &HeaderError{Stage: stage, Offset: start, Err: missingHeader[stage]}
	}
	return block, nil
}

func matchSignature(block []byte, stage Stage) bool {
	field := string(block[signatureOffset : signatureOffset+signatureLength])
	return strings.TrimRight(field, " *!") == signatures[stage]
}

// readMetadata reads the descriptive records that follow a header.
func readMetadata(br *BlockReader, stage Stage) ([][]byte, error) {
	records := make([][]byte, 0, metadataRecords)
	for range metadataRecords {
		start := br.Offset()
		rec, err := br.ReadBlock()
		if err != nil {
			return nil, &HeaderError{Stage: stage, Offset: start, Err: truncated(err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseDigits decodes a fixed-width ASCII decimal field. A blank field is 0.
func parseDigits(field []byte) (int, error) {
	s := strings.TrimSpace(string(field))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad numeric field %q", ErrMalformedHeader, field)
	}
	return n, nil
}

// variableCount extracts the number of variables from a NAMESTR header.
func variableCount(block []byte) (int, error) {
	return parseDigits(block[countOffset : countOffset+countLength])
}

// namestrSize extracts the namestr record size from a MEMBER header.
func namestrSize(block []byte) (int, error) {
	n, err := parseDigits(block[namestrSizeOffset : namestrSizeOffset+namestrSizeLength])
	if err != nil {
		return 0, err
	}
	switch n {
	case 0:
		return NamestrSize, nil
	case NamestrSize, NamestrSizeVAX:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unsupported namestr size %d", ErrMalformedHeader, n)
	}
}

// truncated marks a short read as a structural failure. Other I/O errors
// pass through unchanged.
func truncated(err error) error {
	if isEndOfStream(err) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}
