package main

import "errors"

// Kind classifies a failure so the transport layer can map it to a status
// without parsing messages. Messages are surfaced to callers verbatim.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func errNotFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func errForbidden(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }
func errValidation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func errConflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

// KindOf returns the kind of err, or KindInternal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func isKind(err error, k Kind) bool { return err != nil && KindOf(err) == k }
