// Package domain defines domain-specific errors.
// These errors represent integration-layer failures and are independent of
// any concrete sound engine.
package domain

import (
	"errors"
	"fmt"
)

// Common errors returned by the callback manager and services.
var (
	// ErrManagerClosed is returned when a registration is attempted on a
	// closed callback manager.
	ErrManagerClosed = errors.New("callback manager is closed")

	// ErrNilCallback is returned when a registration is created without a
	// callback, delegate, or completion action.
	ErrNilCallback = errors.New("callback must not be nil")

	// ErrInvalidFlags is returned when a registration subscribes to no
	// notification kinds.
	ErrInvalidFlags = errors.New("callback flags must subscribe to at least one notification kind")

	// ErrInvalidGameObject is returned when an operation targets the zero
	// game object id.
	ErrInvalidGameObject = errors.New("invalid game object id")

	// ErrEngineClosed is returned when an event is posted to a sound engine
	// that has been shut down.
	ErrEngineClosed = errors.New("sound engine is closed")

	// ErrUnsupportedFormat is returned when a sound bank file's format is
	// not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a sound bank file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrWaitCancelled is returned when a blocking wait for event completion
	// is abandoned because its context ended first.
	ErrWaitCancelled = errors.New("wait for event completion cancelled")
)

// EngineError represents an error reported by the sound engine.
// It wraps low-level engine failures with the operation and event involved.
type EngineError struct {
	Op      string // Operation that failed (e.g., "post", "cancel")
	Event   string // Event name (if applicable)
	Code    int    // Error code from the underlying engine
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("sound engine %s failed for event '%s': %s (code: %d)", e.Op, e.Event, e.Message, e.Code)
	}
	return fmt.Sprintf("sound engine %s failed: %s (code: %d)", e.Op, e.Message, e.Code)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, event string, code int, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		Event:   event,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BankError represents an error loading a sound event definition from disk.
type BankError struct {
	Op   string // Operation that failed (e.g., "open", "decode")
	Path string // File path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *BankError) Error() string {
	return fmt.Sprintf("sound bank %s failed for '%s': %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *BankError) Unwrap() error {
	return e.Err
}

// NewBankError creates a new BankError.
func NewBankError(op, path string, err error) *BankError {
	return &BankError{Op: op, Path: path, Err: err}
}
