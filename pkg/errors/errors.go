package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Details []string `json:"errors,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "Validation error")
	ErrBadRequest         = New("BAD_REQUEST", http.StatusBadRequest, "bad request")
	ErrTooManyRequests    = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "An error occurred")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrEventNotFound         = New("EVENT_NOT_FOUND", http.StatusNotFound, "Event not found")
	ErrUserNotFound          = New("USER_NOT_FOUND", http.StatusNotFound, "User not found")
	ErrEventFull             = New("EVENT_FULL", http.StatusBadRequest, "Event is at full capacity")
	ErrRegistrationClosed    = New("REGISTRATION_CLOSED", http.StatusBadRequest, "Registration deadline has passed")
	ErrAlreadyRegistered     = New("ALREADY_REGISTERED", http.StatusBadRequest, "User is already registered for this event")
	ErrCapacityBelowRoster   = New("CAPACITY_BELOW_REGISTRATIONS", http.StatusBadRequest, "Capacity cannot be lower than the number of registered students")
	ErrDeadlineAfterEvent    = New("DEADLINE_AFTER_EVENT", http.StatusBadRequest, "Registration deadline must be before the event date")
	ErrDuplicateAccount      = New("DUPLICATE_ACCOUNT", http.StatusConflict, "User with this email or PRN already exists")
	ErrMissingRequiredFields = New("MISSING_FIELDS", http.StatusBadRequest, "Missing required fields")
	ErrExportNotFound        = New("EXPORT_NOT_FOUND", http.StatusNotFound, "Export not found")
	ErrExportExpired         = New("EXPORT_EXPIRED", http.StatusGone, "Export link has expired")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying per-field messages.
func WithDetails(err *Error, cause error, details []string) *Error {
	clone := Clone(err, "")
	if clone == nil {
		return nil
	}
	clone.Err = cause
	clone.Details = append([]string(nil), details...)
	return clone
}
