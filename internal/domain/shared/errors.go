// Package shared contains common domain types, errors and events that are
// used across all domain packages. This package has zero external dependencies.
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
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// Submission errors
	ErrInvalidSubmission   = errors.New("invalid submission")
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// State errors
	ErrInconsistentState = errors.New("inconsistent state")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "catalog", "submission"
	Op      string // Operation that failed, e.g., "Find", "Submit"
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

// Is implements errors.Is() matching.
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

// Student domain errors
var (
	ErrStudentNotFound   = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidProfile    = NewDomainError("student", "SelectProfile", ErrInvalidInput, "unknown profile")
	ErrInvalidEmail      = NewDomainError("student", "Create", ErrInvalidInput, "invalid email")
	ErrStudentVersionGap = NewDomainError("student", "Commit", ErrInconsistentState, "student version mismatch")
)

// Catalog domain errors
var (
	ErrConceptNotFound = NewDomainError("catalog", "FindConcept", ErrNotFound, "concept not found")
	ErrMissionNotFound = NewDomainError("catalog", "FindMission", ErrNotFound, "mission not found")
	ErrEventNotFound   = NewDomainError("catalog", "FindEvent", ErrNotFound, "event not found")
	ErrInvalidLevel    = NewDomainError("catalog", "ParseLevel", ErrInvalidInput, "unknown level")
)

// Gating errors
var (
	ErrNoMissionAvailable = NewDomainError("gating", "NextMission", ErrNotFound, "Toutes les missions ont été complétées.")
)

// Submission errors
var (
	ErrProfileNotSelected = NewDomainError("submission", "Validate", ErrInvalidSubmission, "profile not selected")
	ErrConceptNotVisible  = NewDomainError("submission", "Validate", ErrInvalidSubmission, "concept not available for profile")
	ErrMissionLocked      = NewDomainError("submission", "Validate", ErrInvalidSubmission, "mission is locked")
	ErrUnknownChoice      = NewDomainError("submission", "Validate", ErrInvalidSubmission, "unknown choice")
	ErrMissionCompleted   = NewDomainError("submission", "Validate", ErrDuplicateSubmission, "Mission already completed")
)

// Recommendation errors
var (
	ErrUnknownGoal = NewDomainError("recommendation", "Suggest", ErrInvalidInput, "unknown goal")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
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
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInvalidSubmission checks if a submission was rejected before mutation.
func IsInvalidSubmission(err error) bool {
	return errors.Is(err, ErrInvalidSubmission)
}

// IsDuplicateSubmission checks if the mission was already completed.
func IsDuplicateSubmission(err error) bool {
	return errors.Is(err, ErrDuplicateSubmission)
}

// IsInconsistentState checks if storage disagreed with an expected invariant.
func IsInconsistentState(err error) bool {
	return errors.Is(err, ErrInconsistentState)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
