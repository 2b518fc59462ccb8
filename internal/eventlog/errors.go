package eventlog

import (
	"errors"
	"fmt"
)

// Kind classifies why a log could not be turned into an event stream.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindHeaderNotFound
	KindNoValidData
	KindParse
	KindMissingColumn
	// KindJoinUnresolved marks samples recorded before any stimulus. It never
	// fails a file, the samples are only excluded from aggregation.
	KindJoinUnresolved
	// KindDroppedLines reports truncated lines removed by the line filter
	// while others survived. Only ever a warning.
	KindDroppedLines
	// KindCanceled marks a file abandoned because its batch was canceled.
	KindCanceled
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "DecodeError"
	case KindHeaderNotFound:
		return "HeaderNotFound"
	case KindNoValidData:
		return "NoValidData"
	case KindParse:
		return "ParseError"
	case KindMissingColumn:
		return "MissingColumn"
	case KindJoinUnresolved:
		return "JoinUnresolved"
	case KindDroppedLines:
		return "DroppedLines"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Sentinel errors, one per kind, for errors.Is checks.
var (
	ErrDecode         = errors.New("no candidate encoding could decode the input")
	ErrHeaderNotFound = errors.New("marker line not found")
	ErrNoValidData    = errors.New("no line has enough fields")
	ErrParse          = errors.New("delimited grammar rejected the input")
	ErrMissingColumn  = errors.New("required column missing")
)

// Error wraps a stage failure with its kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind even when the wrapped cause is a
// more specific error.
func (e *Error) Is(target error) bool {
	return sentinel(e.Kind) == target
}

func sentinel(k Kind) error {
	switch k {
	case KindDecode:
		return ErrDecode
	case KindHeaderNotFound:
		return ErrHeaderNotFound
	case KindNoValidData:
		return ErrNoValidData
	case KindParse:
		return ErrParse
	case KindMissingColumn:
		return ErrMissingColumn
	}
	return nil
}

func newError(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err, KindUnknown when it did not come from this
// package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
