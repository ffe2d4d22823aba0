package agentdef

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader means the document has no delimited header block.
	ErrNoHeader = errors.New("no header block")
	// ErrMalformedHeader means neither the strict nor the lenient parser
	// produced a key.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrInvalidIdentifier means a file or directory name is not a valid
	// agent identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

type LoadErrorKind int

const (
	KindMissingFile LoadErrorKind = iota + 1
	KindMalformedMetadata
	KindHeaderParse
	KindInvalidIdentifier
	KindUnreadable
)

func (k LoadErrorKind) String() string {
	switch k {
	case KindMissingFile:
		return "missing file"
	case KindMalformedMetadata:
		return "malformed metadata"
	case KindHeaderParse:
		return "header parse"
	case KindInvalidIdentifier:
		return "invalid identifier"
	case KindUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// LoadError describes why a single candidate could not be loaded. It never
// aborts a scan.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadError(kind LoadErrorKind, path string, err error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Err: err}
}
