package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeValidation indicates client input that is malformed or out of range
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConfiguration indicates a missing operational secret or identifier
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeUpstreamUnavailable indicates the calendar or mail relay is unreachable or erroring
	ErrorTypeUpstreamUnavailable ErrorType = "UPSTREAM_UNAVAILABLE"

	// ErrorTypeBookingConflict indicates the slot was taken by the time of the write
	ErrorTypeBookingConflict ErrorType = "BOOKING_CONFLICT"

	// ErrorTypeBookingFailed indicates any other failure while writing the booking
	ErrorTypeBookingFailed ErrorType = "BOOKING_FAILED"

	// ErrorTypeNotFound indicates a calendar event was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// Fields is set on validation errors that concern specific request fields
	Fields []FieldError
	// Missing is set on configuration errors and names the absent variables
	Missing []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewFieldValidationError creates a validation error carrying per-field messages
func NewFieldValidationError(message string, fields []FieldError) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewConfigurationError creates a configuration error naming the missing variables
func NewConfigurationError(message string, missing ...string) *AppError {
	if len(missing) > 0 {
		message = fmt.Sprintf("%s (missing: %s)", message, strings.Join(missing, ", "))
	}
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Missing: missing,
	}
}

// NewUpstreamUnavailableError creates an upstream service error
func NewUpstreamUnavailableError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeUpstreamUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewBookingConflictError creates a booking conflict error
func NewBookingConflictError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeBookingConflict,
		Message: message,
		Err:     err,
	}
}

// NewBookingFailedError creates a booking failure error
func NewBookingFailedError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeBookingFailed,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// AsAppError returns the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// TypeOf returns the tag of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries the given tag
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
