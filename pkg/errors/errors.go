package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrSlotUnavailable
	ErrInvalidTransition
	ErrConflict
)

var codeNames = map[ErrorCode]string{
	ErrNotFound:          "not_found",
	ErrBadRequest:        "bad_request",
	ErrUnauthorized:      "unauthorized",
	ErrForbidden:         "forbidden",
	ErrInternal:          "internal",
	ErrSlotUnavailable:   "slot_unavailable",
	ErrInvalidTransition: "invalid_transition",
	ErrConflict:          "conflict",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error_%d", int(c))
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// Conflict reports a write that collides with existing data
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

// SlotUnavailable reports a time slot that could not be reserved
func SlotUnavailable(slotID int64, reason string) *AppError {
	return &AppError{
		Code:    ErrSlotUnavailable,
		Message: "Time slot not available",
		Details: map[string]interface{}{
			"time_slot_id": slotID,
			"reason":       reason,
		},
	}
}

// InvalidTransition reports a status change attempted from the wrong state
func InvalidTransition(appointmentID int64, current, target string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("Cannot change status to %s. Current status: %s", target, current),
		Details: map[string]interface{}{
			"appointment_id": appointmentID,
			"current_status": current,
			"target_status":  target,
		},
	}
}

// As extracts the AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
