package errs

import (
	"errors"
)

// Kind classifies a failure for callers and transports.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindCapacity   Kind = "capacity"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindDependency Kind = "dependency"
)

// Error is the error type returned by services and repositories.
// Code is a stable machine-readable identifier, Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so sentinel values can be compared with errors.Is
// even after being wrapped with a cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Sentinel errors for the credential and session flows. They are surfaced
// unchanged so callers cannot tell which check failed.
var (
	ErrInvalidCredentials   = &Error{Kind: KindAuth, Code: "invalid_credentials", Message: "invalid credentials"}
	ErrInvalidToken         = &Error{Kind: KindAuth, Code: "invalid_token", Message: "invalid token"}
	ErrInvalidOrExpiredCode = &Error{Kind: KindAuth, Code: "invalid_or_expired_code", Message: "invalid or expired otp"}
)

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: "validation", Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: "conflict", Message: msg}
}

func Capacity(msg string) *Error {
	return &Error{Kind: KindCapacity, Code: "capacity", Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: msg}
}

// Dependency wraps a persistence, cache or blob store failure.
func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Code: "dependency", Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindDependency for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

// IsKind reports whether err belongs to kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the client-safe message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
