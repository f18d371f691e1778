package sortx

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a structured engine error carrying the failed operation,
// the lane and job it concerns (when applicable), and a high-level
// category the error envelope keys its handling on.
type Error struct {
	Op    string        // Operation that failed (e.g. "GPIO_SETUP", "FRAME_READ")
	Lane  int           // Lane index (-1 if not applicable)
	JobID string        // Job id ("" if not applicable)
	Code  SortErrorCode // High-level error category
	Msg   string        // Human-readable message
	Inner error         // Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Lane >= 0 {
		parts = append(parts, fmt.Sprintf("lane=%d", e.Lane))
	}
	if e.JobID != "" {
		parts = append(parts, fmt.Sprintf("job=%s", e.JobID))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("sortx: %s (%s)", msg, strings.Join(parts, " "))
	}
	return fmt.Sprintf("sortx: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches two structured errors by category.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// SortErrorCode represents high-level error categories.
type SortErrorCode string

const (
	ErrCodeGPIOFault     SortErrorCode = "gpio fault"
	ErrCodeCameraFault   SortErrorCode = "camera fault"
	ErrCodeConfigInvalid SortErrorCode = "invalid configuration"
	ErrCodeDesync        SortErrorCode = "queue desynchronization"
	ErrCodePersistence   SortErrorCode = "queue persistence failure"
	ErrCodeMaintenance   SortErrorCode = "maintenance mode latched"
	ErrCodeNotRunning    SortErrorCode = "engine not running"
)

// NewError creates a new structured error.
func NewError(op string, code SortErrorCode, msg string) *Error {
	return &Error{Op: op, Lane: -1, Code: code, Msg: msg}
}

// NewLaneError creates a new lane-specific error.
func NewLaneError(op string, lane int, code SortErrorCode, msg string) *Error {
	return &Error{Op: op, Lane: lane, Code: code, Msg: msg}
}

// NewJobError creates a new job-specific error.
func NewJobError(op, jobID string, code SortErrorCode, msg string) *Error {
	return &Error{Op: op, Lane: -1, JobID: jobID, Code: code, Msg: msg}
}

// WrapError wraps an existing error with engine context.
func WrapError(op string, code SortErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}

	// An already-structured error keeps its context; only the
	// operation is updated.
	if se, ok := inner.(*Error); ok {
		return &Error{
			Op:    op,
			Lane:  se.Lane,
			JobID: se.JobID,
			Code:  se.Code,
			Msg:   se.Msg,
			Inner: se.Inner,
		}
	}

	return &Error{
		Op:    op,
		Lane:  -1,
		Code:  code,
		Msg:   inner.Error(),
		Inner: inner,
	}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code SortErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
