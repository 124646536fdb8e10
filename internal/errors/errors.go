package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStatistics ErrorType = "STATISTICS"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Statistical degeneracy sentinels. KPI computations wrap these in an
// AppError so callers can match the exact precondition that failed with
// errors.Is while still classifying the error as ErrTypeStatistics.
var (
	ErrZeroDenominator    = errors.New("zero denominator")
	ErrInsufficientSample = errors.New("insufficient sample size")
	ErrZeroVariance       = errors.New("zero variance")
	ErrEmptyTable         = errors.New("empty table")
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

// Unwrap allows errors.Is and errors.As to work with AppError
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

// Helper functions for common error types

// NewSchemaError creates a source-schema error. Schema errors are fatal:
// a missing mapped column or a broken date layout means nothing downstream
// can be trusted.
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStatisticsError creates a statistical-degeneracy error for a single
// KPI computation. The cause should be one of the degeneracy sentinels.
func NewStatisticsError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStatistics, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// GetErrorType returns the ErrorType of err if it is (or wraps) an
// AppError, and an empty type otherwise.
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsDegeneracy reports whether err stems from one of the statistical
// degeneracy sentinels.
func IsDegeneracy(err error) bool {
	return errors.Is(err, ErrZeroDenominator) ||
		errors.Is(err, ErrInsufficientSample) ||
		errors.Is(err, ErrZeroVariance) ||
		errors.Is(err, ErrEmptyTable)
}
