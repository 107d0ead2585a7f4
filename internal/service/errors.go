package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies caller-facing domain faults. Every engine operation
// either fully commits or rejects with one of these; kinds map 1:1 onto
// transport status codes at the boundary.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindForbidden          ErrorKind = "forbidden"
	KindConflict           ErrorKind = "conflict"
	KindStateError         ErrorKind = "state_error"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindInvalidArgument    ErrorKind = "invalid_argument"
)

// Error is the tagged domain fault returned across the engine boundary.
// Detail carries a structured payload for kinds that have one.
type Error struct {
	Kind    ErrorKind
	Message string
	Detail  any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or "" for infrastructure faults.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NotEnoughQuestionsDetail is attached to the PreconditionFailed rejection
// when the question pool cannot satisfy the requested settings.
type NotEnoughQuestionsDetail struct {
	Category  string `json:"category"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func errRoomNotFound(code string) *Error {
	return newError(KindNotFound, "room %s not found", code)
}

func errNotHost() *Error {
	return newError(KindForbidden, "only the host may perform this action")
}

func errNotEnoughQuestions(category string, requested, available int) *Error {
	err := newError(KindPreconditionFailed,
		"not enough questions in category %q: requested %d, available %d",
		category, requested, available)
	err.Detail = NotEnoughQuestionsDetail{
		Category:  category,
		Requested: requested,
		Available: available,
	}
	return err
}
