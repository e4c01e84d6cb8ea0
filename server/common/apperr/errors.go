// Package apperr holds the error kinds the HTTP layer knows how to render.
// Callers wrap them with fmt.Errorf("...: %w", apperr.ErrX) and test with
// errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrStorage    = errors.New("object storage error")
	ErrEmbedding  = errors.New("embedding service error")
	ErrForbidden  = errors.New("forbidden")
)

// Error carries a client-facing message next to its kind, so the response
// message does not have to repeat the kind text.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Conflict(message string, cause error) error {
	return &Error{Kind: ErrConflict, Message: message, Err: cause}
}

func Storage(message string, cause error) error {
	return &Error{Kind: ErrStorage, Message: message, Err: cause}
}

func Embedding(message string, cause error) error {
	return &Error{Kind: ErrEmbedding, Message: message, Err: cause}
}

// Message returns the client-facing part of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
