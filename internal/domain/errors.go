package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory is the machine-readable classification of an engine error.
// Categories, not message text, are the contractual part of an error: callers
// and differential tests key on them.
type ErrorCategory string

const (
	// CategoryValidation marks malformed or missing caller input. Recoverable
	// by correcting the request, never retried automatically.
	CategoryValidation ErrorCategory = "VALIDATION_ERROR"

	// CategoryNoData marks a resolvable request for which no snapshot data
	// exists to establish begin/end values or any curve point.
	CategoryNoData ErrorCategory = "NO_DATA_ERROR"

	// CategoryInvalidRange marks a resolved interval that is zero/negative or
	// explicitly inverted custom bounds.
	CategoryInvalidRange ErrorCategory = "INVALID_RANGE_ERROR"
)

// Error is a typed engine error carrying a category and a human message.
type Error struct {
	Category ErrorCategory
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

// NewValidationError creates a VALIDATION_ERROR.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Category: CategoryValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNoDataError creates a NO_DATA_ERROR.
func NewNoDataError(format string, args ...any) *Error {
	return &Error{Category: CategoryNoData, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidRangeError creates an INVALID_RANGE_ERROR.
func NewInvalidRangeError(format string, args ...any) *Error {
	return &Error{Category: CategoryInvalidRange, Message: fmt.Sprintf(format, args...)}
}

// CategoryOf extracts the category from an error chain.
// The second return value is false for errors that are not engine errors.
func CategoryOf(err error) (ErrorCategory, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Category, true
	}
	return "", false
}
