// Package apperr defines the error taxonomy shared by repositories,
// services, and the API layer. Every error here is recoverable by the
// caller; none represents a fatal process condition.
package apperr

import (
	"errors"
	"fmt"

	"app/internal/model"
)

// Code is a machine-readable error code.
type Code string

const (
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeQuotaExceeded     Code = "QUOTA_EXCEEDED"
	CodeInviteExpired     Code = "INVITE_EXPIRED"
	CodeInviteExhausted   Code = "INVITE_EXHAUSTED"
	CodeInviteRevoked     Code = "INVITE_REVOKED"
	CodeInvalidRole       Code = "INVALID_ROLE"
	CodeOwnershipConflict Code = "OWNERSHIP_CONFLICT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeValidation        Code = "VALIDATION_ERROR"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code    Code
	Message string
	// Entity names the missing entity for CodeNotFound.
	Entity string
	// Quota details, populated for CodeQuotaExceeded.
	Kind    model.ResourceKind
	Limit   int
	Current int

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound reports that the named entity does not exist.
func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found", Entity: entity}
}

// PermissionDenied reports that the caller may not perform the operation.
func PermissionDenied(message string) *Error {
	return &Error{Code: CodePermissionDenied, Message: message}
}

// Conflict reports a concurrent-mutation or duplicate-state conflict.
// Conflicts from lock contention are safe to retry with refreshed state.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// OwnershipConflict reports an operation that would leave a circle with
// zero owners.
func OwnershipConflict(message string) *Error {
	return &Error{Code: CodeOwnershipConflict, Message: message}
}

// InvalidRole reports a role outside the allowed assignment set.
func InvalidRole(message string) *Error {
	return &Error{Code: CodeInvalidRole, Message: message}
}

// Validation reports malformed input.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// QuotaExceeded reports a reservation that would exceed the resolved limit.
func QuotaExceeded(kind model.ResourceKind, limit, current int) *Error {
	return &Error{
		Code:    CodeQuotaExceeded,
		Message: fmt.Sprintf("%s quota exceeded (limit %d, current %d)", kind, limit, current),
		Kind:    kind,
		Limit:   limit,
		Current: current,
	}
}

// InviteExpired reports an invite past its expiry.
func InviteExpired() *Error {
	return &Error{Code: CodeInviteExpired, Message: "invite has expired"}
}

// InviteExhausted reports an invite with no uses remaining.
func InviteExhausted() *Error {
	return &Error{Code: CodeInviteExhausted, Message: "invite has no uses remaining"}
}

// InviteRevoked reports an explicitly revoked invite.
func InviteRevoked() *Error {
	return &Error{Code: CodeInviteRevoked, Message: "invite has been revoked"}
}

// CodeOf extracts the domain error code, or "" for unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
