package errors

import "fmt"

// ErrorCode represents an hnfav error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrAcquireFailed  ErrorCode = "ACQUIRE_FAILED"  // 500, query error or empty result
	ErrDeliveryFailed ErrorCode = "DELIVERY_FAILED" // 500, file create/write/open failure
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// FavError represents a structured error with code, status, and details.
type FavError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *FavError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FavError {
	return &FavError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a saved item cannot be found.
func NewNotFound(id string) *FavError {
	return &FavError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("saved item not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *FavError {
	return &FavError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewAcquireFailed creates an error for a failed or empty export query.
// The reason distinguishes "query failed" from "no items matched" for logs
// and tests; callers see a single export-failed outcome either way.
func NewAcquireFailed(reason string) *FavError {
	return &FavError{
		Code:    ErrAcquireFailed,
		Status:  500,
		Message: fmt.Sprintf("could not acquire items for export: %s", reason),
		Details: map[string]any{"reason": reason},
	}
}

// NewDeliveryFailed creates an error for a failed document write.
func NewDeliveryFailed(err error) *FavError {
	msg := "delivery failed"
	if err != nil {
		msg = err.Error()
	}
	return &FavError{
		Code:    ErrDeliveryFailed,
		Status:  500,
		Message: msg,
	}
}

// NewCancelled creates an error for an operation aborted via context.
func NewCancelled(op string) *FavError {
	return &FavError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("operation cancelled: %s", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FavError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FavError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a FavError with the given code.
func Is(err error, code ErrorCode) bool {
	if fErr, ok := err.(*FavError); ok {
		return fErr.Code == code
	}
	return false
}
