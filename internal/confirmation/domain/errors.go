package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags confirmation errors instead of a type hierarchy.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNotFound marks an absent confirmation. Callers treat it as a normal outcome.
	KindNotFound
	// KindInvalidState marks programmer misuse, fatal to the current request.
	KindInvalidState
	// KindHandlerFailure marks a guarded action that failed after its entry was cleared.
	KindHandlerFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindHandlerFailure:
		return "handler_failure"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrHandlerFailure = &Error{Kind: KindHandlerFailure}
)

// Error is a confirmation failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidState) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func InvalidState(op string, err error) error {
	return &Error{Kind: KindInvalidState, Op: op, Err: err}
}

func HandlerFailure(op string, err error) error {
	return &Error{Kind: KindHandlerFailure, Op: op, Err: err}
}

func NotFound(op string) error {
	return &Error{Kind: KindNotFound, Op: op}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
