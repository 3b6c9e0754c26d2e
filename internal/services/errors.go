// Package services defines the business logic for check-in intake, prompt
// selection, extraction, and presence tracking. This file centralizes the
// service-level error taxonomy so that it can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates missing or malformed caller input. It is always
	// wrapped with a message naming the offending fields; check with
	// errors.Is. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrCheckinNotFound indicates the referenced check-in does not exist.
	ErrCheckinNotFound = errors.New("check-in not found")

	// ErrSessionNotFound indicates the referenced presence session does not
	// exist or is already closed.
	ErrSessionNotFound = errors.New("presence session not found or already closed")

	// ErrAlreadyProcessed signals that a check-in has already been through the
	// persistence fan-out. It is an idempotent no-op marker, not a failure:
	// the pipeline translates it into an "already_processed" result before it
	// reaches callers.
	ErrAlreadyProcessed = errors.New("check-in already processed")
)

// validationErr builds an ErrValidation naming the missing fields.
func validationErr(missing ...string) error {
	return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
}

// IsValidation reports whether err is (or wraps) ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// ExtractionServiceError wraps a failed model call (transport error or
// non-success status). The check-in stays unprocessed so the extraction can
// be retried later; retry policy is the caller's concern.
type ExtractionServiceError struct {
	Err error
}

// Error implements the error interface.
func (e *ExtractionServiceError) Error() string {
	return fmt.Sprintf("extraction model call failed: %v", e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *ExtractionServiceError) Unwrap() error { return e.Err }

// InsertError records one failed sub-entity insert during the persistence
// fan-out. Collection is the target collection name (e.g. "meals").
type InsertError struct {
	Collection string
	Err        error
}

// Error implements the error interface.
func (e InsertError) Error() string {
	return e.Collection + ": " + e.Err.Error()
}

// PartialPersistenceError aggregates the fan-out's failed inserts. It is
// diagnostic data accompanying an otherwise successful pipeline run: it never
// blocks the processed-flag update and is never returned as the operation
// error.
type PartialPersistenceError struct {
	Errors []InsertError
}

// Error implements the error interface.
func (e *PartialPersistenceError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ie := range e.Errors {
		parts = append(parts, ie.Error())
	}
	return "partial persistence failure: " + strings.Join(parts, "; ")
}
