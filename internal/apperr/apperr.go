package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so handlers can map them to transport codes
// without inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidArgument
	KindConflict
	KindTransient
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	ErrNotFound        = &Error{kind: KindNotFound, msg: "not found"}
	ErrForbidden       = &Error{kind: KindForbidden, msg: "access denied"}
	ErrInvalidArgument = &Error{kind: KindInvalidArgument, msg: "invalid argument"}
	ErrConflict        = &Error{kind: KindConflict, msg: "conflict"}
	ErrTransient       = &Error{kind: KindTransient, msg: "transient failure"}
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Is matches any error of the same kind, so
// errors.Is(err, apperr.ErrForbidden) works for wrapped errors too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

func (e *Error) Kind() Kind { return e.kind }

func NotFound(format string, args ...any) error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// Forbidden intentionally carries no detail beyond a generic message;
// authorization failures must not leak which identities are valid.
func Forbidden() error {
	return ErrForbidden
}

func InvalidArgument(format string, args ...any) error {
	return &Error{kind: KindInvalidArgument, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

func Transient(err error) error {
	return &Error{kind: KindTransient, msg: "transient failure", err: err}
}

// Internal wraps infrastructure errors that should surface as a 500.
func Internal(err error) error {
	return &Error{kind: KindUnknown, msg: "internal error", err: err}
}

// KindOf reports the kind of err, unwrapping as needed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}
