package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NonFieldErrorsKey is the field under which the backend reports errors that
// do not belong to a single form field.
const NonFieldErrorsKey = "non_field_errors"

var (
	// ErrValidation classifies rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication classifies bad or missing credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization classifies calls the authenticated user may not make.
	ErrAuthorization = errors.New("not authorized")
	// ErrNotFound classifies missing entities.
	ErrNotFound = errors.New("not found")
	// ErrNetwork classifies transport failures and unexpected responses.
	ErrNetwork = errors.New("network error")
)

// ValidationError maps form fields to the messages the backend reported.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field string, messages ...string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: messages}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))

	for _, field := range e.fieldNames() {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], " "))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Messages returns the messages of one field.
func (e *ValidationError) Messages(field string) []string {
	return e.Fields[field]
}

// OnlyNonFieldErrors reports whether every message is a non-field error.
func (e *ValidationError) OnlyNonFieldErrors() bool {
	if len(e.Fields) == 0 {
		return false
	}

	for field := range e.Fields {
		if field != NonFieldErrorsKey {
			return false
		}
	}

	return true
}

// AllMessages returns every message, non-field errors first, then fields in
// alphabetical order.
func (e *ValidationError) AllMessages() []string {
	var out []string

	for _, field := range e.fieldNames() {
		out = append(out, e.Fields[field]...)
	}

	return out
}

// FirstField returns the first field (in the order used by AllMessages) that
// carries messages, preferring the given fields in order.
func (e *ValidationError) FirstField(preferred ...string) (string, []string, bool) {
	for _, field := range preferred {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return field, msgs, true
		}
	}

	for _, field := range e.fieldNames() {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return field, msgs, true
		}
	}

	return "", nil, false
}

func (e *ValidationError) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))

	for field := range e.Fields {
		names = append(names, field)
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i] == NonFieldErrorsKey || names[j] == NonFieldErrorsKey {
			return names[i] == NonFieldErrorsKey
		}

		return names[i] < names[j]
	})

	return names
}

// AuthenticationError is returned when credentials are rejected.
type AuthenticationError struct {
	Messages []string
}

func (e *AuthenticationError) Error() string {
	if len(e.Messages) == 0 {
		return ErrAuthentication.Error()
	}

	return "authentication failed: " + strings.Join(e.Messages, " ")
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// AuthorizationError is returned when the backend refuses a call.
type AuthorizationError struct {
	Detail string
}

func (e *AuthorizationError) Error() string {
	if e.Detail == "" {
		return ErrAuthorization.Error()
	}

	return "not authorized: " + e.Detail
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrAuthorization
}

// NotFoundError is returned when the requested entity does not exist.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return ErrNotFound.Error()
	}

	return "not found: " + e.Detail
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NetworkError wraps transport failures and responses that fit no other class.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	msg := "network error"
	if e.Op != "" {
		msg += ": " + e.Op
	}

	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

const (
	msgNotFound       = "The requested blog post could not be found."
	msgNotAuthorized  = "You are not authorized to perform this action."
	msgNetwork        = "Could not reach the server. Please check your connection and try again."
	msgAuthentication = "Failed to login. Please check your credentials."
)

// DisplayMessage converts any collaborator error into the text shown to the
// user. fallback is used when the error carries nothing presentable.
func DisplayMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		validationErr     *ValidationError
		authenticationErr *AuthenticationError
		authorizationErr  *AuthorizationError
		notFoundErr       *NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		if msgs := validationErr.AllMessages(); len(msgs) > 0 {
			return strings.Join(msgs, " ")
		}
	case errors.As(err, &authenticationErr):
		if len(authenticationErr.Messages) > 0 {
			return strings.Join(authenticationErr.Messages, " ")
		}

		return msgAuthentication
	case errors.As(err, &authorizationErr):
		if authorizationErr.Detail != "" {
			return authorizationErr.Detail
		}

		return msgNotAuthorized
	case errors.As(err, &notFoundErr):
		return msgNotFound
	case errors.Is(err, ErrNetwork):
		return msgNetwork
	}

	return fallback
}

// SignupMessage renders a signup failure the way the signup form shows it:
// the first offending field, prefixed with its label.
func SignupMessage(err error) string {
	const fallback = "Failed to sign up. Please try again."

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		return DisplayMessage(err, fallback)
	}

	field, msgs, ok := validationErr.FirstField("username", "email", "password")
	if !ok {
		return fallback
	}

	if field == NonFieldErrorsKey || field == "detail" {
		return strings.Join(msgs, " ")
	}

	return fieldLabel(field) + ": " + strings.Join(msgs, " ")
}

func fieldLabel(field string) string {
	switch field {
	case "username":
		return "Username"
	case "email":
		return "Email"
	case "password":
		return "Password"
	default:
		return field
	}
}
