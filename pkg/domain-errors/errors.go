// Package domainerrors provides coded errors so services can classify
// failures without string matching. Codes map one-to-one onto the failure
// taxonomy operators see in order notes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeInsufficientInput means the order carries neither a usable
	// identifier pair nor enough address data to search with.
	CodeInsufficientInput Code = "insufficient_input"

	// CodeNotFound means a record does not exist (order, session, KG/EZ pair).
	CodeNotFound Code = "not_found"

	// CodeNoMatch means every resolution strategy was exhausted without a hit.
	CodeNoMatch Code = "no_match"

	// CodeUpstream means the registry gateway failed at HTTP or envelope level.
	CodeUpstream Code = "upstream"

	// CodeMalformedResponse means the upstream reported success but the
	// response carried no extractable document.
	CodeMalformedResponse Code = "malformed_response"

	// CodeStorage means an artifact could not be persisted.
	CodeStorage Code = "storage"

	// CodeNotification means a mail or ops notification failed. Always
	// non-fatal for the pipeline.
	CodeNotification Code = "notification"

	// CodeConflict means another run currently holds the order's claim.
	CodeConflict Code = "conflict"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error couples a code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error. A nil err yields nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
