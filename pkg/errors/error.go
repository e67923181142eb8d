// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid filter values, unknown filters, conditions that do not
//     apply to a column, missing quote fields, malformed legs and pricing modes
//   - Data/Resource errors (200-299): Quote import, query and result export failures
//   - Backtest errors (600-699): Backtesting engine preconditions and stage failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeUnknownFilter, "unknown filter")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeInvalidFilterValue, "invalid value for %s", name)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeUnknownFilter) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// FilterError attaches the failing filter and its pipeline stage to an error.
// The code of the wrapped error stays reachable through GetCode and HasCode.
type FilterError struct {
	Filter string // Filter name as declared in the strategy configuration
	Stage  string // Pipeline stage the filter belongs to
	Err    error
}

// NewFilterError creates a FilterError for the named filter.
func NewFilterError(filter, stage string, err error) *FilterError {
	return &FilterError{
		Filter: filter,
		Stage:  stage,
		Err:    err,
	}
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return fmt.Sprintf("%s filter %q: %v", e.Stage, e.Filter, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilterError) Unwrap() error {
	return e.Err
}

// IsFilterError checks if an error is a FilterError.
// It uses errors.As to check the error chain.
func IsFilterError(err error) bool {
	var filterErr *FilterError

	return errors.As(err, &filterErr)
}
