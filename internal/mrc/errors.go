package mrc

import "errors"

// ErrorKind enumerates the fatal, section-level parse failures.
type ErrorKind int

const (
	MissingHeaderSection ErrorKind = iota + 1
	MissingDataSection
	EmptyDataset
)

func (k ErrorKind) String() string {
	switch k {
	case MissingHeaderSection:
		return "missing header section"
	case MissingDataSection:
		return "missing data section"
	case EmptyDataset:
		return "empty dataset"
	default:
		return "unknown format error"
	}
}

// FormatError reports a file that cannot be parsed at all. Malformed data
// lines never produce one; they are skipped.
type FormatError struct {
	Kind ErrorKind
}

func (e *FormatError) Error() string {
	return "mrc: " + e.Kind.String()
}

// Is lets errors.Is match any FormatError of the same kind.
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingHeaderSection = &FormatError{Kind: MissingHeaderSection}
	ErrMissingDataSection   = &FormatError{Kind: MissingDataSection}
	ErrEmptyDataset         = &FormatError{Kind: EmptyDataset}
)

// IsFormatError reports whether err (or anything it wraps) is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
