package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error by the subsystem that raised it
type ErrorType string

const (
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeExport     ErrorType = "EXPORT"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NotFound wraps a missing resource
func NotFound(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", cause)
}

// StorageError wraps a filesystem failure during operation
func StorageError(operation string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, operation+" failed", cause)
}

// ParsingError wraps a decode failure of source
func ParsingError(source string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, "cannot parse "+source, cause)
}

// ExportError wraps a report writer failure
func ExportError(format string, cause error) *AppError {
	return NewAppError(ErrTypeExport, format+" export failed", cause)
}

// IsType reports whether err is an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
