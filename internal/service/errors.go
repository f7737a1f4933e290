package service

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation.  Handlers translate kinds into
// HTTP status codes; the string value is rendered as the "error" field.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInvalidRange  Kind = "invalid_range"
	KindConflict      Kind = "conflict"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindUnauthorized  Kind = "unauthorized"
	KindInternal      Kind = "internal"
)

// Error is returned by every service operation that rejects a request.
// Only KindInternal carries a wrapped store error.
type Error struct {
	Kind        Kind
	Message     string
	ID          uint64 // entity the rejection refers to, when known
	TotalNights int    // nights already held, set for KindQuotaExceeded
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind of err.  Errors not produced by this package
// are reported as KindInternal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func notFound(id uint64, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, ID: id, Message: fmt.Sprintf(format, args...)}
}

func invalidRange(msg string) *Error {
	return &Error{Kind: KindInvalidRange, Message: msg}
}

func unauthorized(id uint64, format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, ID: id, Message: fmt.Sprintf(format, args...)}
}

func internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// passThrough keeps service errors raised inside a transaction callback
// and wraps anything else as an internal failure.
func passThrough(err error, msg string) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return internal(err, msg)
}
