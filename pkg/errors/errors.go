// Package errors defines the sentinel errors shared across the search engine
// and an AppError type that carries a user-facing message and HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrSyntax         = errors.New("query syntax error")
	ErrDocumentExists = errors.New("document already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrIndexClosed    = errors.New("index closed")
	ErrInternal       = errors.New("internal error")
	ErrTimeout        = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Message returns the user-facing message of the first AppError in err's
// chain, or err.Error() when there is none.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrSyntax), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDocumentExists):
		return http.StatusConflict
	case errors.Is(err, ErrIndexClosed), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
