// Package apperrors holds the error taxonomy shared by services and the HTTP layer.
// Services return *Error values; handlers map Kind to a status code and message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Conflict
	InvalidCredentials
	MfaRequired
	InvalidMfaCode
	MfaNotSetUp
	ExpiredToken
	InvalidToken
	NotFound
	Forbidden
	Validation
)

func (k Kind) String() string {
	switch k {
	case Conflict:
		return "conflict"
	case InvalidCredentials:
		return "invalid_credentials"
	case MfaRequired:
		return "mfa_required"
	case InvalidMfaCode:
		return "invalid_mfa_code"
	case MfaNotSetUp:
		return "mfa_not_set_up"
	case ExpiredToken:
		return "expired_token"
	case InvalidToken:
		return "invalid_token"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Validation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to clients;
// Err is the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NewConflict(msg string) *Error { return New(Conflict, msg) }

func NewNotFound(msg string) *Error { return New(NotFound, msg) }

func NewForbidden() *Error { return New(Forbidden, "Not authorized") }

func NewInvalidCredentials() *Error { return New(InvalidCredentials, "Invalid credentials") }

func NewMfaRequired() *Error { return New(MfaRequired, "MFA token required") }

func NewInvalidMfaCode() *Error { return New(InvalidMfaCode, "Invalid MFA token") }

func NewMfaNotSetUp() *Error { return New(MfaNotSetUp, "MFA not set up") }

func NewInvalidToken(msg string) *Error { return New(InvalidToken, msg) }

func NewExpiredToken() *Error { return New(ExpiredToken, "Token expired") }

// NewValidation carries one message per failed field.
func NewValidation(fields ...string) *Error {
	return &Error{Kind: Validation, Message: "Validation error", Fields: fields}
}

// Wrap classifies err as Internal. context names the failing operation.
func Wrap(err error, context string) *Error {
	return &Error{Kind: Internal, Message: context, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a Kind onto the status code the API contract uses for it.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Conflict, InvalidCredentials, MfaRequired, InvalidMfaCode, Validation:
		return http.StatusBadRequest
	case ExpiredToken, InvalidToken:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound, MfaNotSetUp:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
