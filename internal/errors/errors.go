package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeProcessingError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given application error code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Predefined error codes
const (
	CodeFileError       = "FILE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeProcessingError = "PROCESSING_ERROR"
	CodeSchemaError     = "SCHEMA_ERROR"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDataError       = "DATA_ERROR"
	CodeInvalidAddress  = "INVALID_ADDRESS"
)

// Common error constructors
func FileError(message string) *AppError {
	return New(CodeFileError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func ProcessingError(message string) *AppError {
	return New(CodeProcessingError, message)
}

func SchemaError(message string) *AppError {
	return New(CodeSchemaError, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DataError(message string) *AppError {
	return New(CodeDataError, message)
}

func InvalidAddress(address string) *AppError {
	return New(CodeInvalidAddress, fmt.Sprintf("invalid cell address: %q", address))
}
