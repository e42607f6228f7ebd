package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a mealtrace error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrMalformedExport    ErrorCode = "MALFORMED_EXPORT"    // 422
	ErrMalformedTimestamp ErrorCode = "MALFORMED_TIMESTAMP" // 422
	ErrMalformedValue     ErrorCode = "MALFORMED_VALUE"     // 422
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// MealtraceError represents a structured error with code, status, and details.
type MealtraceError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MealtraceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MealtraceError {
	return &MealtraceError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing export file.
func NewNotFound(path string) *MealtraceError {
	return &MealtraceError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("export not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewRunNotFound creates a 404 error for a snapshot run id that does not exist.
func NewRunNotFound(id string) *MealtraceError {
	return &MealtraceError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("snapshot run not found: %s", id),
		Details: map[string]any{"run_id": id},
	}
}

// NewMalformedExport creates a 422 error when the export document cannot be decoded.
func NewMalformedExport(err error) *MealtraceError {
	msg := "malformed export"
	if err != nil {
		msg = fmt.Sprintf("malformed export: %v", err)
	}
	return &MealtraceError{
		Code:    ErrMalformedExport,
		Status:  422,
		Message: msg,
	}
}

// NewMalformedTimestamp creates a 422 error for a record whose start time does not parse.
// position is the 1-based ordinal of the record in the export.
func NewMalformedTimestamp(position int, value string) *MealtraceError {
	return &MealtraceError{
		Code:    ErrMalformedTimestamp,
		Status:  422,
		Message: fmt.Sprintf("record %d: malformed start date %q", position, value),
		Details: map[string]any{"position": position, "value": value},
	}
}

// NewMalformedValue creates a 422 error for a nutrient record whose value is not a number.
func NewMalformedValue(position int, recordType, value string) *MealtraceError {
	return &MealtraceError{
		Code:    ErrMalformedValue,
		Status:  422,
		Message: fmt.Sprintf("record %d: malformed %s value %q", position, recordType, value),
		Details: map[string]any{"position": position, "type": recordType, "value": value},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled mid-way.
func NewCancelled(op string) *MealtraceError {
	return &MealtraceError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MealtraceError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MealtraceError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a MealtraceError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MealtraceError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// As returns the MealtraceError wrapped in err, if any.
func As(err error) (*MealtraceError, bool) {
	var mErr *MealtraceError
	if stderrors.As(err, &mErr) {
		return mErr, true
	}
	return nil, false
}
