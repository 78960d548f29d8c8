// Package errors carries coded errors through the signal pipeline.
//
// Codes are grouped by the stage that raised them:
//   - 100-199 configuration and validation
//   - 200-299 bar feed
//   - 300-399 indicators
//   - 400-499 signal rules and alpha presets
//   - 500-599 position state machine
//   - 600-699 dispatch and execution
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not registered", name)
//	if errors.HasCode(err, errors.ErrCodeIndicatorNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a failure tagged with an ErrorCode.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is forwards to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error in err's chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError reports a bar window shorter than an indicator's warm-up.
// The pipeline treats it as "not yet actionable" rather than a failure.
type InsufficientDataError struct {
	Required int
	Actual   int
	Source   string
}

func NewInsufficientDataError(required, actual int, source string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Source:   source,
	}
}

func (e *InsufficientDataError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("insufficient data: need %d bars, have %d", e.Required, e.Actual)
	}

	return fmt.Sprintf("insufficient data for %s: need %d bars, have %d", e.Source, e.Required, e.Actual)
}

func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
