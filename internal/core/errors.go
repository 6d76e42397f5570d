package core

import "errors"

// Code classifies a domain failure so the transport layer can map it to a
// status without string matching.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeDuplicateKey      Code = "duplicate_key"
	CodeNotFound          Code = "not_found"
	CodeInvalidIdentifier Code = "invalid_identifier"
	CodeServer            Code = "server_error"
)

// Error is the domain error type shared by every component.
type Error struct {
	Code    Code   // Machine-readable error code
	Field   string // Offending field, when there is one
	Message string // Human-readable message, safe to return to clients for 4xx codes
	Cause   error  // Wrapped underlying error
}

// Sentinels for errors.Is; matching is by code only.
var (
	ErrValidation        = &Error{Code: CodeValidation}
	ErrDuplicateKey      = &Error{Code: CodeDuplicateKey}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrInvalidIdentifier = &Error{Code: CodeInvalidIdentifier}
	ErrServer            = &Error{Code: CodeServer}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

func DuplicateKey(field, message string) *Error {
	return &Error{Code: CodeDuplicateKey, Field: field, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func InvalidIdentifier(message string) *Error {
	return &Error{Code: CodeInvalidIdentifier, Field: "id", Message: message}
}

// Server wraps an unexpected collaborator failure.
func Server(message string, cause error) *Error {
	return &Error{Code: CodeServer, Message: message, Cause: cause}
}

// CodeOf extracts the domain code from err. Errors that carry no code are
// unexpected by definition and report CodeServer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeServer
}

// Wrap returns err unchanged when it already carries a domain code and
// otherwise wraps it as a server error.
func Wrap(message string, err error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return Server(message, err)
}
