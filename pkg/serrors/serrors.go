// Package serrors attaches a semantic kind to errors so that transports can
// map failures to status codes without knowing where they came from.
//
//	return serrors.Wrap(serrors.ErrNotFound, err, "quiz %s", id)
//
// Kinds are sentinels: errors.Is(err, serrors.ErrNotFound) holds for any
// error whose chain carries the kind, including fmt.Errorf wrappers.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a semantic error category created by NewKind.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a kind. Its name doubles as the machine readable error code
// so it should be upper snake case.
func NewKind(name string) Kind { return kind{s: name} }

var (
	ErrNotFound     = NewKind("NOT_FOUND")
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrForbidden is for authenticated callers acting on something they don't own.
	ErrForbidden  = NewKind("FORBIDDEN")
	ErrBadRequest = NewKind("BAD_REQUEST")
	ErrConflict   = NewKind("CONFLICT")
	// ErrInternal details are never shown to clients.
	ErrInternal    = NewKind("INTERNAL")
	ErrTimeout     = NewKind("TIMEOUT")
	ErrUnavailable = NewKind("UNAVAILABLE")
	ErrRateLimited = NewKind("RATE_LIMITED")
	// ErrUnprocessable is for well-formed input the operation could not act on,
	// such as an image without a readable code.
	ErrUnprocessable = NewKind("UNPROCESSABLE")
)

// KindOf returns the outermost kind in err's chain, or nil.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// MessageOf returns the outermost non-empty message set through With or Wrap
// in err's chain, or "".
func MessageOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.msg != "" { //nolint: errorlint
			return e.msg
		}
		err = errors.Unwrap(err)
	}

	return ""
}

// Error is an error of a given Kind, with an optional message and cause.
// errors.Is and errors.As match both the kind and the cause chain.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With returns an error of kind k described by a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap returns an error of kind k caused by err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly returns a bare error of kind k.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error renders "msg: cause", falling back to whichever part is set and then
// to the kind name.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	switch {
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	}

	return "unknown error"
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}

	return (e.kind != nil && errors.Is(e.kind, target)) ||
		(e.err != nil && errors.Is(e.err, target))
}

func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}

	return (e.kind != nil && errors.As(e.kind, target)) ||
		(e.err != nil && errors.As(e.err, target))
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Message() string { return e.msg }

func (e *Error) Cause() error { return e.err }
