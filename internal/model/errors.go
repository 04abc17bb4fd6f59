package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the HTTP layer can map them deliberately.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindDomain           ErrorKind = "domain_error"
	KindUnexpectedFormat ErrorKind = "unexpected_format"
	KindUpstream         ErrorKind = "upstream"
	KindUnavailable      ErrorKind = "unavailable"
	KindInternal         ErrorKind = "internal"
)

// Error is a typed failure carrying a kind and a human-readable message.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrDomain           = &Error{Kind: KindDomain}
	ErrUnexpectedFormat = &Error{Kind: KindUnexpectedFormat}
	ErrUpstream         = &Error{Kind: KindUpstream}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
)

// Errorf builds a typed error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
