// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors" // Error unwrapping
	"fmt"    // Message formatting
)

// Kind classifies an error for callers and for HTTP mapping
type Kind int

const (
	KindInternal       Kind = iota // Unexpected failure
	KindValidation                 // Bad client input
	KindAuthentication             // Missing or invalid identity
	KindAuthorization              // Identity lacks the right
	KindNotFound                   // Resource does not exist
	KindConflict                   // State does not allow the operation
	KindTransient                  // Storage or network failure, safe to retry
)

// String returns the kind's log name
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// Stable machine-readable codes
const (
	CodeInvalidInput       = "invalid_input"       // Field validation failed
	CodeUserExists         = "user_exists"         // Username or email taken
	CodeInvalidCredentials = "invalid_credentials" // Wrong email or password
	CodeUnauthorized       = "unauthorized"        // No valid token or signature
	CodeForbidden          = "forbidden"           // Not the NFT creator
	CodeNotFound           = "not_found"           // Unknown id
	CodeNFTNotListed       = "nft_not_listed"      // Buy of an unlisted NFT
	CodeNFTAlreadyOwned    = "nft_already_owned"   // Buyer already owns it
	CodeUnavailable        = "storage_unavailable" // Database or cache down
	CodeInternal           = "internal_error"      // Anything else
)

// Error carries a kind, a code and a message safe to show to clients.
// Err holds the underlying cause for logs and is never rendered.
type Error struct {
	Kind    Kind   // Classification
	Code    string // Machine-readable code
	Message string // Client-facing message
	Err     error  // Underlying cause, may be nil
}

// Error implements error, appending the cause when present
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind
func New(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation reports bad client input (400)
func Validation(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message, nil)
}

// Unauthenticated reports a missing or invalid identity (401)
func Unauthenticated(message string) *Error {
	return New(KindAuthentication, CodeUnauthorized, message, nil)
}

// Forbidden reports a known caller acting outside its rights (403)
func Forbidden(message string) *Error {
	return New(KindAuthorization, CodeForbidden, message, nil)
}

// NotFound reports a missing resource (404)
func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message, nil)
}

// Conflict reports a state clash under a caller-chosen code (409)
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message, nil)
}

// Transient wraps a storage or network failure the caller may retry
func Transient(err error) *Error {
	return New(KindTransient, CodeUnavailable, "service temporarily unavailable", err)
}

// Internal wraps an unexpected failure; its detail stays out of responses
func Internal(err error) *Error {
	return New(KindInternal, CodeInternal, "internal server error", err)
}

// As extracts an *Error from err, wrapping unknown errors as internal
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	return As(err).Kind
}

// CodeOf returns the code of err
func CodeOf(err error) string {
	return As(err).Code
}
