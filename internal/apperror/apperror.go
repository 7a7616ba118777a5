// Package apperror defines the typed, user-facing errors returned by the
// service layer. Every AppError wraps one sentinel so callers can branch with
// errors.Is, and carries a stable message that is safe to show to clients.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingToken   = errors.New("missing token")
)

// Machine-readable codes placed under "extensions.code" in API error payloads.
const (
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Code maps the wrapped sentinel to its client-facing code.
func (e *AppError) Code() string {
	switch {
	case errors.Is(e.Err, ErrValidation):
		return CodeBadUserInput
	case errors.Is(e.Err, ErrAuthentication),
		errors.Is(e.Err, ErrInvalidToken),
		errors.Is(e.Err, ErrMissingToken):
		return CodeUnauthenticated
	case errors.Is(e.Err, ErrUnauthorized):
		return CodeForbidden
	case errors.Is(e.Err, ErrConflict):
		return CodeConflict
	case errors.Is(e.Err, ErrNotFound):
		return CodeNotFound
	}
	return CodeInternal
}

// Extensions makes AppError satisfy the GraphQL executor's extended error
// interface, so the code travels with the message in the response.
func (e *AppError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code()}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	return ext
}

func NotFound(resource string, id int) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail reports a signup against an email that is already taken.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("a user with email %s already exists", email),
		Field:   "email",
	}
}

// AuthenticationFailed is returned by login when the credentials don't check out.
func AuthenticationFailed(message string) *AppError {
	return &AppError{
		Err:     ErrAuthentication,
		Message: message,
	}
}

// Unauthorized returns an AppError indicating the operation needs a logged-in
// caller. The message is action-specific ("Cannot vote without logging in.").
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InvalidToken wraps a token verification failure. The cause is kept for
// logs; the message shown to clients stays generic.
func InvalidToken(cause error) *AppError {
	err := ErrInvalidToken
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidToken, cause)
	}
	return &AppError{
		Err:     err,
		Message: "invalid authentication token",
	}
}

func MissingToken() *AppError {
	return &AppError{
		Err:     ErrMissingToken,
		Message: "no token found in authorization header",
	}
}
