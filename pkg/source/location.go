// Package source resolves the inputs the xpt commands accept (local paths,
// s3://bucket/key URIs and "-" for stdin) into readers and decode sessions.
package source

import (
	"fmt"
	"strings"
)

// Kind identifies where an input lives.
type Kind string

const (
	KindFile  Kind = "file"
	KindS3    Kind = "s3"
	KindStdin Kind = "stdin"
)

const s3Scheme = "s3://"

// Location is a parsed input URI.
type Location struct {
	Kind   Kind
	Path   string // KindFile
	Bucket string // KindS3
	Key    string // KindS3
}

// Parse classifies uri. "-" is stdin, "s3://bucket/key" is an S3 object and
// anything else is a local path.
func Parse(uri string) (Location, error) {
	switch {
	case uri == "":
		return Location{}, fmt.Errorf("empty input")
	case uri == "-":
		return Location{Kind: KindStdin}, nil
	case strings.HasPrefix(uri, s3Scheme):
		bucket, key, _ := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
		if bucket == "" || key == "" {
			return Location{}, fmt.Errorf("invalid S3 URI %q: want s3://bucket/key", uri)
		}
		return Location{Kind: KindS3, Bucket: bucket, Key: key}, nil
	default:
		return Location{Kind: KindFile, Path: uri}, nil
	}
}

func (l Location) String() string {
	switch l.Kind {
	case KindStdin:
		return "-"
	case KindS3:
		return s3Scheme + l.Bucket + "/" + l.Key
	default:
		return l.Path
	}
}

// Name returns a short dataset name for the input: the file or object base
// name without its extension, or "stdin".
func (l Location) Name() string {
	var base string
	switch l.Kind {
	case KindStdin:
		return "stdin"
	case KindS3:
		base = l.Key
	default:
		base = l.Path
	}
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
