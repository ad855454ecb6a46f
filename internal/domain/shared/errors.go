// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrLocked          = errors.New("locked")

	// Persistence errors
	ErrCorruptData = errors.New("corrupt data")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "curriculum", "achievement"
	Op      string // Operation that failed, e.g., "RecordScore", "Merge"
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

// Progress domain errors
var (
	ErrProgressNotFound  = NewDomainError("progress", "Find", ErrNotFound, "no progress recorded for lesson")
	ErrInvalidScore      = NewDomainError("progress", "RecordScore", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrInvalidLessonID   = NewDomainError("progress", "Validate", ErrInvalidID, "invalid lesson ID")
	ErrNegativeXP        = NewDomainError("progress", "AddXP", ErrNegativeValue, "XP amount cannot be negative")
	ErrSnapshotCorrupt   = NewDomainError("progress", "Load", ErrCorruptData, "progress snapshot is corrupt")
	ErrStateNotSynced    = NewDomainError("progress", "Check", ErrInvalidState, "local state has not been synced")
)

// Curriculum domain errors
var (
	ErrUnitNotFound    = NewDomainError("curriculum", "Find", ErrNotFound, "unit not found in catalog")
	ErrUnitLocked      = NewDomainError("curriculum", "CheckUnlock", ErrLocked, "unit prerequisites not met")
	ErrCyclicCatalog   = NewDomainError("curriculum", "Validate", ErrInvalidInput, "unit prerequisite graph has a cycle")
	ErrUnknownPrereq   = NewDomainError("curriculum", "Validate", ErrInvalidID, "prerequisite references unknown unit")
	ErrEmptyCatalog    = NewDomainError("curriculum", "Load", ErrEmptyValue, "catalog contains no units")
)

// Placement domain errors
var (
	ErrPlacementEmpty    = NewDomainError("placement", "Score", ErrEmptyValue, "placement test has no answers")
	ErrUnknownCEFRLevel  = NewDomainError("placement", "Validate", ErrInvalidInput, "unknown CEFR level")
	ErrPlacementQuestion = NewDomainError("placement", "Validate", ErrInvalidID, "answer references unknown question")
	ErrPlacementRepeat   = NewDomainError("placement", "Validate", ErrInvalidInput, "question answered more than once")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not defined")
	ErrUnknownRequirement  = NewDomainError("achievement", "Evaluate", ErrInvalidInput, "unknown requirement type")
)

// Sync domain errors
var (
	ErrSyncInProgress    = NewDomainError("sync", "Start", ErrInvalidState, "sync already in progress")
	ErrRemoteUnavailable = NewDomainError("sync", "Fetch", ErrServiceUnavailable, "remote progress backend unavailable")
	ErrRemoteTimeout     = NewDomainError("sync", "Fetch", ErrTimeout, "remote progress backend timeout")
	ErrRemoteBadPayload  = NewDomainError("sync", "Parse", ErrInvalidFormat, "invalid payload from remote backend")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsCorrupt checks if the error indicates unreadable persisted data.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptData) || errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}