// Package patcherr defines the tagged error type shared by every package in
// this module. Each error carries a Kind so callers (primarily cmd/formpatch)
// can map failures to process exit behavior without string-matching messages.
package patcherr

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// Io covers read/write/seek/open/rename/unlink failures from the
	// underlying platform.
	Io Kind = iota
	// InvalidFormat covers magic mismatches, chunk bounds violations,
	// overlapping chunks, out-of-range offsets/counts, and unexpected
	// reserved-field values.
	InvalidFormat
	// Unsupported covers unknown section magics and patch/cascade
	// operations on sections the engine does not know how to rewrite.
	Unsupported
	// PatchConflict covers patch/entry mismatches: wrong type, wrong
	// dimensions, missing section/entry/sprite, double-patching an entry.
	PatchConflict
	// OutOfMemory covers allocation failures. cmd/formpatch maps it to its
	// own exit code; no engine package returns it.
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "Io"
	case InvalidFormat:
		return "InvalidFormat"
	case Unsupported:
		return "Unsupported"
	case PatchConflict:
		return "PatchConflict"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

// Error is a tagged, section/entry-aware diagnostic. It implements the
// standard error interface and Unwrap so errors.Is/errors.As compose with
// wrapped I/O errors.
type Error struct {
	Kind    Kind
	Section string // section tag name, e.g. "TXTR"; empty if not applicable
	Index   int    // entry index, or -1 if not applicable
	Msg     string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	prefix := ""
	switch {
	case e.Section != "" && e.Index >= 0:
		prefix = fmt.Sprintf("section %s, entry %d: ", e.Section, e.Index)
	case e.Section != "":
		prefix = fmt.Sprintf("section %s: ", e.Section)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %v", prefix, e.Msg, e.Err)
	}
	return prefix + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a section/entry-less error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Index: -1, Msg: msg}
}

// Wrap creates an Io-kind error wrapping a lower-level cause.
func Wrap(msg string, err error) *Error {
	return &Error{Kind: Io, Index: -1, Msg: msg, Err: err}
}

// WithSection creates an error of the given kind annotated with a section
// tag.
func WithSection(kind Kind, section, msg string) *Error {
	return &Error{Kind: kind, Section: section, Index: -1, Msg: msg}
}

// WithEntry creates an error of the given kind annotated with a section
// tag and entry index.
func WithEntry(kind Kind, section string, index int, msg string) *Error {
	return &Error{Kind: kind, Section: section, Index: index, Msg: msg}
}
