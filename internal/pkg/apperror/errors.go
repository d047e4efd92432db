package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrCodePersistence  ErrorCode = "PERSISTENCE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsUpstream(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeUpstream
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

// HTTPStatus maps any error to a response status, defaulting to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

var (
	ErrRequestNotFound        = New(ErrCodeNotFound, "withdrawal request not found")
	ErrDepositRequestNotFound = New(ErrCodeNotFound, "deposit request not found")
	ErrUserNotFound           = New(ErrCodeNotFound, "user not found")
	ErrUnauthorized           = New(ErrCodeUnauthorized, "authorization required")
	ErrInvalidCredentials     = New(ErrCodeUnauthorized, "invalid credentials")
)
