package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to distinguish "genuinely
// empty" from "failed to read" and map failures to transport status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindStore
	KindCollaborator
	KindInvariant
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() Kind {
	return e.kind
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

func NotFound(what string) *Error {
	return &Error{kind: KindNotFound, msg: what + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{kind: KindConflict, msg: msg}
}

func Store(msg string, err error) *Error {
	return &Error{kind: KindStore, msg: msg, err: err}
}

func Collaborator(msg string, err error) *Error {
	return &Error{kind: KindCollaborator, msg: msg, err: err}
}

func Invariant(msg string) *Error {
	return &Error{kind: KindInvariant, msg: msg}
}

// KindOf walks the chain and returns the first classified kind.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
