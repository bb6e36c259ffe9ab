// Package apperr defines the error kinds use cases return to the transport
// layer. Each kind maps to exactly one HTTP status in the presenter.
package apperr

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrCapacity       = errors.New("capacity exceeded")
	ErrInternal       = errors.New("internal error")
)

// Error carries a kind, a message that is safe to show to callers and an
// optional cause that is only meant for server-side logs.
type Error struct {
	kind  error
	msg   string
	cause error
}

// New returns an error of the given kind with a public message.
func New(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Wrap is New with a hidden cause attached.
func Wrap(kind error, msg string, cause error) error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message is the public part of the error.
func (e *Error) Message() string { return e.msg }

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool { return target == e.kind }

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the kind of err, or ErrInternal when err does not carry one.
func Kind(err error) error {
	for _, k := range []error{ErrInvalidInput, ErrConflict, ErrAuthentication, ErrCapacity, ErrInternal} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Message returns the public message of err. Errors without one collapse to
// a generic text so storage details never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return "internal server error"
}
