package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError is the tagged error result returned by services. Callers switch on
// Code; a nil error always means the data is valid, even when it is empty.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNoRecipients:
		return http.StatusUnprocessableEntity
	case ErrSendFailed:
		return http.StatusBadGateway
	case ErrStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrStore
	ErrNoRecipients
	ErrSendFailed
)

// Sentinels for errors.Is checks.
var (
	NoRecipients     = &AppError{Code: ErrNoRecipients, Message: "no recipients found"}
	NotAuthenticated = &AppError{Code: ErrUnauthorized, Message: "unauthorized"}
	SendFailed       = &AppError{Code: ErrSendFailed, Message: "failed to send emails"}
	StoreFailure     = &AppError{Code: ErrStore, Message: "store query failed"}
	NotFound         = &AppError{Code: ErrNotFound, Message: "not found"}
	BadRequest       = &AppError{Code: ErrBadRequest, Message: "bad request"}
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewStore tags a failed read or write against the recipient store.
func NewStore(message string, err error) *AppError {
	return &AppError{
		Code:    ErrStore,
		Message: message,
		Err:     err,
	}
}

func NewNoRecipients() *AppError {
	return &AppError{
		Code:    ErrNoRecipients,
		Message: "no recipients found",
	}
}

func NewSendFailed(err error) *AppError {
	return &AppError{
		Code:    ErrSendFailed,
		Message: "failed to send emails",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the AppError code of err, or ErrInternal for untagged errors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternal
}
