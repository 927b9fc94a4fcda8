// Package kernelcore provides the top-level API for booting a Symbian
// kernel core and dispatching guest SVC calls against it.
package kernelcore

import (
	"errors"
	"fmt"

	"github.com/symkern/kernelcore/internal/uapi"
)

// Error represents a structured kernel-core error with dispatch context.
type Error struct {
	Op      string          // Operation that failed (e.g., "ThreadCreate", "SessionSend")
	Ordinal uint32          // SVC ordinal involved (0 if not applicable)
	Handle  int32           // Guest handle involved (0 if not applicable)
	Code    uapi.ErrorCode  // Kernel error code
	Msg     string          // Human-readable message
	Inner   error           // Wrapped error
}

func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Ordinal != 0 {
		parts = append(parts, fmt.Sprintf("ordinal=0x%x", e.Ordinal))
	}
	if e.Handle != 0 {
		parts = append(parts, fmt.Sprintf("handle=%d", e.Handle))
	}

	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}

	if len(parts) > 0 {
		return fmt.Sprintf("kernelcore: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("kernelcore: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support for code-only comparisons: a target
// *Error with only Code set matches any Error sharing that code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// NewError creates a new structured error.
func NewError(op string, code uapi.ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewDispatchError creates a new structured error from a failed SVC
// dispatch, carrying the ordinal and handle involved.
func NewDispatchError(op string, ordinal uint32, handle int32, code uapi.ErrorCode) *Error {
	return &Error{Op: op, Ordinal: ordinal, Handle: handle, Code: code, Msg: code.String()}
}

// WrapError wraps an existing error with kernel-core context, preserving
// the inner error's code if it was already structured.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ke, ok := inner.(*Error); ok {
		return &Error{
			Op:      op,
			Ordinal: ke.Ordinal,
			Handle:  ke.Handle,
			Code:    ke.Code,
			Msg:     ke.Msg,
			Inner:   ke.Inner,
		}
	}
	return &Error{Op: op, Code: uapi.General, Msg: inner.Error(), Inner: inner}
}

// IsCode checks whether err carries the given kernel error code.
func IsCode(err error, code uapi.ErrorCode) bool {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Code == code
	}
	return false
}
