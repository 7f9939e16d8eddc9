package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a sheetload error code.
type ErrorCode string

const (
	ErrFormat         ErrorCode = "FORMAT_ERROR"      // unparsable date/time/duration/rate
	ErrParse          ErrorCode = "PARSE_ERROR"       // missing required column or structural problem
	ErrConsistency    ErrorCode = "CONSISTENCY_ERROR" // segment disagrees with reported duration
	ErrDuplicate      ErrorCode = "DUPLICATE"         // insert collided on a key
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConnectivity   ErrorCode = "CONNECTIVITY" // store failure, aborts the batch
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrInternal       ErrorCode = "INTERNAL"
)

// LoadError represents a structured error with code and details.
type LoadError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort an import run.
// Duplicates are expected on re-import and are the only recoverable kind.
func (e *LoadError) Fatal() bool {
	return e.Code != ErrDuplicate
}

// NewFormat creates an error for a value that does not match its expected layout.
func NewFormat(field, value, layout string) *LoadError {
	return &LoadError{
		Code:    ErrFormat,
		Message: fmt.Sprintf("invalid %s %q (expected %s)", field, value, layout),
		Details: map[string]any{"field": field, "value": value, "layout": layout},
	}
}

// NewParse creates an error for a missing column or a row that cannot be placed.
func NewParse(msg string) *LoadError {
	return &LoadError{
		Code:    ErrParse,
		Message: msg,
	}
}

// NewConsistency creates an error for a segment whose clock span disagrees
// with the duration reported on the same row.
func NewConsistency(row int, spanMS, reportedMS int64) *LoadError {
	return &LoadError{
		Code:    ErrConsistency,
		Message: fmt.Sprintf("row %d: segment spans %dms but reported duration is %dms", row, spanMS, reportedMS),
		Details: map[string]any{"row": row, "span_ms": spanMS, "reported_ms": reportedMS},
	}
}

// NewDuplicate creates an error for an insert that collided on its key.
func NewDuplicate(entity, id string) *LoadError {
	return &LoadError{
		Code:    ErrDuplicate,
		Message: fmt.Sprintf("%s already exists: %s", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewNotFound creates an error for an entity that is not in the store.
func NewNotFound(entity, id string) *LoadError {
	return &LoadError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewConnectivity wraps a store failure that is not a key collision.
func NewConnectivity(err error) *LoadError {
	msg := "store unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &LoadError{
		Code:    ErrConnectivity,
		Message: msg,
		Err:     err,
	}
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *LoadError {
	return &LoadError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *LoadError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LoadError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// WithDetail attaches a detail to the error and returns it.
func (e *LoadError) WithDetail(key string, value any) *LoadError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// AtRow prefixes the message with the CSV row and file it came from.
func (e *LoadError) AtRow(file string, row int) *LoadError {
	e.Message = fmt.Sprintf("%s:%d: %s", file, row, e.Message)
	return e.WithDetail("file", file).WithDetail("row", row)
}

// Is checks if err (or anything it wraps) is a LoadError with the given code.
func Is(err error, code ErrorCode) bool {
	var lErr *LoadError
	if stderrors.As(err, &lErr) {
		return lErr.Code == code
	}
	return false
}

// As extracts a LoadError from err.
func As(err error) (*LoadError, bool) {
	var lErr *LoadError
	ok := stderrors.As(err, &lErr)
	return lErr, ok
}
