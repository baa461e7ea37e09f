// Package pdferr defines the fatal error kinds pdfconcat can raise and
// the exit code each one maps to. There is no recovery path: every
// error here terminates the run.
package pdferr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error categories from the specification.
type Kind int

const (
	Usage Kind = iota
	IO
	Header
	Syntax
	Xref
	Missing
	TypeMismatch
	Unsupported
	Overflow
	OutOfMemory
)

// ExitCode returns the process exit code associated with k, per the
// command-line interface contract.
func (k Kind) ExitCode() int {
	switch k {
	case Usage:
		return 2
	case IO, Header, Syntax, Xref, Missing, TypeMismatch, Unsupported, Overflow, OutOfMemory:
		return 3
	default:
		return 1
	}
}

func (k Kind) String() string {
	switch k {
	case Usage:
		return "UsageError"
	case IO:
		return "IOError"
	case Header:
		return "HeaderError"
	case Syntax:
		return "SyntaxError"
	case Xref:
		return "BadXref"
	case Missing:
		return "MissingRequired"
	case TypeMismatch:
		return "TypeMismatch"
	case Unsupported:
		return "UnsupportedFeature"
	case Overflow:
		return "OverflowError"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Error"
	}
}

// Error is a fatal pdfconcat error, tagged with the input (or output)
// filename and, for reader errors, the byte offset where it was
// detected.
type Error struct {
	Kind   Kind
	File   string
	Offset int64 // -1 when not applicable (writer errors, usage errors)
	cause  error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s (at offset %d): %s", e.Kind, e.File, e.Offset, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.File, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error not tied to a byte offset (usage/output errors).
func New(kind Kind, file string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, File: file, Offset: -1, cause: errors.Errorf(format, args...)}
}

// At builds an Error tied to a byte offset in file (reader errors).
func At(kind Kind, file string, offset int64, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, File: file, Offset: offset, cause: errors.Errorf(format, args...)}
}

// Wrap tags an existing error with a kind, file, and offset, preserving
// the original error as the cause chain so %+v keeps the stack trace
// pkg/errors attaches at the point of failure.
func Wrap(kind Kind, file string, offset int64, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, File: file, Offset: offset, cause: errors.Wrap(err, msg)}
}

// As reports whether err (or one of its wrapped causes) is a pdfconcat
// *Error, returning it for exit-code dispatch.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
