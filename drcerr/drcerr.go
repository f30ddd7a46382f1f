// Package drcerr defines the small typed error vocabulary shared by every
// Device Runtime Core component, so callers can branch on Kind without
// string matching while still composing with the standard errors package.
package drcerr

import "fmt"

// Kind classifies a DRC error for propagation decisions (see SPEC_FULL §7).
type Kind string

const (
	NotFound       Kind = "not_found"
	InvalidArg     Kind = "invalid_argument"
	InvalidState   Kind = "invalid_state"
	Decode         Kind = "decode"
	Timeout        Kind = "timeout"
	Busy           Kind = "busy"
	IO             Kind = "io"
	Crypto         Kind = "crypto"
	Unsupported    Kind = "unsupported"
)

// Error is a typed, wrappable DRC error.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details string
	Cause   error
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(cause error, kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

func Wrapf(cause error, kind Kind, op, format string, args ...interface{}) *Error {
	return Wrap(cause, kind, op, fmt.Sprintf(format, args...))
}

func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

func (e *Error) WithDetailsf(format string, args ...interface{}) *Error {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, drcerr.NotFound) style checks work against a Kind:
// a Kind is itself an error (see Kind.Error) and matches any *Error of
// that kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// Error makes a Kind usable as a sentinel-compatible marker error.
func (k Kind) Error() string { return string(k) }

// OfKind reports whether err (or something it wraps) is a *Error of kind k.
func OfKind(err error, k Kind) bool {
	var e *Error
	if as(err, &e) {
		return e.Kind == k
	}
	return false
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
