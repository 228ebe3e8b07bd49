// Package shared contains common domain types, errors and events used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")
	ErrInvalidID    = errors.New("invalid ID")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors. ErrServiceUnavailable is the StorageUnavailable
	// kind: the collaborator failed and nothing was mutated.
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "student", "leaderboard", "event"
	Op      string // Operation that failed, e.g. "Append", "RankOf"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Invalidf builds an ErrInvalidInput error with a formatted message.
func Invalidf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Unavailable wraps a storage or upstream failure as ErrServiceUnavailable.
func Unavailable(domain, op string, err error) *DomainError {
	return WrapError(domain, op, ErrServiceUnavailable, "storage unavailable", err)
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrEmptyIdentity        = NewDomainError("student", "Validate", ErrInvalidID, "identity cannot be empty")
	ErrUnknownSource        = NewDomainError("student", "Append", ErrInvalidInput, "unknown point source")
	ErrNonFinitePoints      = NewDomainError("student", "Append", ErrInvalidInput, "points must be a finite integer")
	ErrDuplicateEntryID     = NewDomainError("student", "Append", ErrAlreadyExists, "point entry id already exists")
)

// Leaderboard domain errors
var (
	ErrNotRanked = NewDomainError("leaderboard", "RankOf", ErrNotFound, "identity is not on the leaderboard")
)

// Event domain errors
var (
	ErrEventNotFound = NewDomainError("event", "Find", ErrNotFound, "event not found")
	ErrEmptyTitle    = NewDomainError("event", "Validate", ErrEmptyValue, "event title cannot be empty")
	ErrInvalidDate   = NewDomainError("event", "Validate", ErrInvalidInput, "event date must be an ISO-8601 timestamp")
)

// External service errors
var (
	ErrLeetCodeUnavailable = NewDomainError("leetcode", "Request", ErrServiceUnavailable, "LeetCode API is unavailable")
	ErrLeetCodeBadResponse = NewDomainError("leetcode", "Parse", ErrExternalService, "invalid response from LeetCode API")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidID)
}

// IsUnavailable checks if the error comes from a failing collaborator.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrTimeout)
}
