package store

import "errors"

// Typed failures surfaced by the pipeline. Callers match with
// errors.Is; the store never guesses intent on any of these.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTenantViolation is returned when an operation is missing an
	// owner id or references an entity owned by a different tenant.
	// Always fatal, never silently corrected.
	ErrTenantViolation = errors.New("tenant violation")

	// ErrIneligibleMemory is returned when a memory's quarantine state,
	// promoted flag, or archival forbids a promotion request.
	ErrIneligibleMemory = errors.New("memory not eligible for promotion")

	// ErrDuplicateRequest is returned when an open promotion request
	// already exists for the memory.
	ErrDuplicateRequest = errors.New("open promotion request already exists")

	// ErrAlreadyResolved is returned when mutating a terminal-state
	// request or an already-overridden decision.
	ErrAlreadyResolved = errors.New("already resolved")

	// ErrInvalidEvent is returned for malformed provenance writes.
	ErrInvalidEvent = errors.New("invalid provenance event")
)
