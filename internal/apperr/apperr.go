// Package apperr is the uniform result type shared by services and controllers.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

type Kind int

const (
	KindStore Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "store"
	}
}

// Error carries a kind, a caller facing message and, for conflicts and validation
// failures, the individual reasons.
type Error struct {
	Kind    Kind
	Message string
	Reasons []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	// Reasons already spelled out in the message are not repeated.
	var extra []string
	for _, r := range e.Reasons {
		if !strings.Contains(e.Message, r) {
			extra = append(extra, r)
		}
	}
	if len(extra) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(extra, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, reasons ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Reasons: reasons}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string, reasons ...string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Reasons: reasons}
}

// Store wraps a failure of the database or another backing service.
func Store(msg string, err error) *Error {
	return &Error{Kind: KindStore, Message: msg, Err: err}
}

// As extracts an *Error from the chain. Untyped errors come back as store errors.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Store("internal error", err)
}

func KindOf(err error) Kind {
	return As(err).Kind
}

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
