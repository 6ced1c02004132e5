package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures for callers: validation and referential
// errors are caller-fixable, store-level codes are safe to blindly retry
// because all write operations are idempotent.
type ErrorCode string

const (
	CodeValidation       ErrorCode = "validation_error"
	CodeUnknownDomain    ErrorCode = "unknown_domain"
	CodeQuestionNotFound ErrorCode = "question_not_found"
	CodeContentTooShort  ErrorCode = "content_too_short"
	CodeAlreadyExists    ErrorCode = "already_exists"
	CodeIncompleteWrite  ErrorCode = "incomplete_write"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeStoreUnavailable ErrorCode = "store_unavailable"
)

// ValidationError names one failed check for one batch item.
type ValidationError struct {
	Index   int         `json:"index"`
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// AppError is the structured error carried through the uniform response
// envelope.
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`

	cause error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewError creates an AppError with the given code and message.
func NewError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WrapError creates an AppError that preserves the underlying cause for
// errors.Is/As chains.
func WrapError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

// NewValidationFailure aggregates per-item failures into one rejection
// report.
func NewValidationFailure(message string, details []ValidationError) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details}
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *AppError   `json:"error"`
}
