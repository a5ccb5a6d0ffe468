package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on the failure class
// instead of matching individual sentinel values.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindConflict
	KindUnauthorized
	KindNotFound
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two domain errors by kind, so tests can compare
// against a bare kinded error without caring about the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of err, defaulting to KindInternal for anything
// that did not originate from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrInvalidArgument = E(KindInvalidArgument, "invalid argument")
	ErrConflict        = E(KindConflict, "conflict")
	ErrUnauthorized    = E(KindUnauthorized, "unauthorized")
	ErrNotFound        = E(KindNotFound, "not found")
)
