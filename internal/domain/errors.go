package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can map them to responses
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindNotFound           ErrorKind = "not_found"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindConflict           ErrorKind = "conflict"
	KindUpstreamFailure    ErrorKind = "upstream_failure"
	KindPersistenceFailure ErrorKind = "persistence_failure"
)

// Error is a classified application error
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Cause == nil:
		return string(e.Kind)
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return e.Cause.Error()
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by kind, so errors.Is(err, ErrNotFound) holds
// for any NotFound error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrUpstreamFailure    = &Error{Kind: KindUpstreamFailure}
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure}
)

var (
	// ErrJobNotFound is returned when a job id is unknown
	ErrJobNotFound = NewNotFound("job not found")

	// ErrJobTerminal is returned when updating a job that is already done or error
	ErrJobTerminal = NewPreconditionFailed("job is in a terminal state")

	// ErrJobAlreadyClaimed is returned when another worker owns the job
	ErrJobAlreadyClaimed = NewPreconditionFailed("job already claimed or not running")

	// ErrSynonymNotFound is returned when a synonym id is unknown
	ErrSynonymNotFound = NewNotFound("synonym not found")
)

func NewInvalidInput(message string) error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewPreconditionFailed(message string) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: message}
}

func NewConflict(message string, cause error) error {
	return &Error{Kind: KindConflict, Message: message, Cause: cause}
}

func NewUpstreamFailure(message string, cause error) error {
	return &Error{Kind: KindUpstreamFailure, Message: message, Cause: cause}
}

func NewPersistenceFailure(message string, cause error) error {
	return &Error{Kind: KindPersistenceFailure, Message: message, Cause: cause}
}

// KindOf returns the kind of the first classified error in the chain, or ""
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
