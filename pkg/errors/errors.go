package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between retrying,
// skipping the current unit of work, or aborting the whole run.
type Kind string

const (
	KindInvalidURL       Kind = "invalid_url"
	KindNetwork          Kind = "network"
	KindFatal            Kind = "fatal"
	KindParse            Kind = "parse"
	KindStructureChanged Kind = "structure_changed"
)

// Error carries a failure kind alongside the message, the wrapped cause,
// and the HTTP status when one was involved.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around an existing cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidURL reports a target URL that matches no known page pattern.
func InvalidURL(url string) *Error {
	return &Error{Kind: KindInvalidURL, Message: fmt.Sprintf("unrecognized target URL: %s", url)}
}

// Network reports a transport failure or a non-success HTTP status.
func Network(status int, message string) *Error {
	return &Error{Kind: KindNetwork, Message: message, Status: status}
}

// Fatal reports a condition that must abort the entire run.
func Fatal(message string) *Error {
	return &Error{Kind: KindFatal, Message: message}
}

// Parse reports content at an expected location that could not be decoded.
func Parse(message string) *Error {
	return &Error{Kind: KindParse, Message: message}
}

// StructureChanged reports a page whose expected anchors are missing,
// usually meaning the site layout no longer matches the extractor.
func StructureChanged(message string) *Error {
	return &Error{Kind: KindStructureChanged, Message: message}
}

// KindOf returns the Kind of err, or an empty Kind for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFatal reports whether err must unwind the whole run. Context
// cancellation counts: once the run context is done nothing else may
// be attempted.
func IsFatal(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return KindOf(err) == KindFatal
}

// IsRetryable reports whether the failed operation may be re-dispatched.
// Only network failures qualify, whatever their status code; everything
// else either aborts the run or is handled by skipping the current unit
// of work. There is no third tier between "retry" and "give up".
func IsRetryable(err error) bool {
	if IsFatal(err) {
		return false
	}
	return KindOf(err) == KindNetwork
}
