package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
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
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Admission and review rejections. All of these surface as 400 by contract:
// clients tell them apart from 403/404 by status and from each other by code.
var (
	ErrInactive               = New("INACTIVE", http.StatusBadRequest, "no longer accepting submissions")
	ErrDeadlinePassed         = New("DEADLINE_PASSED", http.StatusBadRequest, "deadline has passed")
	ErrAlreadyOccurred        = New("ALREADY_OCCURRED", http.StatusBadRequest, "cannot register for past events")
	ErrCapacityFull           = New("CAPACITY_FULL", http.StatusBadRequest, "event is full")
	ErrAlreadyRegistered      = New("ALREADY_REGISTERED", http.StatusBadRequest, "already registered for this event")
	ErrAlreadyApplied         = New("ALREADY_APPLIED", http.StatusBadRequest, "already applied for this recruitment")
	ErrInvalidPosition        = New("INVALID_POSITION", http.StatusBadRequest, "invalid position selected")
	ErrMissingRequiredAnswers = New("MISSING_REQUIRED_ANSWERS", http.StatusBadRequest, "please answer all required questions")
	ErrInvalidOptionValue     = New("INVALID_OPTION_VALUE", http.StatusBadRequest, "invalid answer for question")
	ErrInvalidTransition      = New("INVALID_TRANSITION", http.StatusBadRequest, "status transition not allowed")
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

// WithDetails returns a copy of the error carrying structured detail data,
// e.g. the list of unanswered required question texts.
func WithDetails(err *Error, details interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}
