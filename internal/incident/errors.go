package incident

import "errors"

var (
	// ErrNotFound is returned when no incident has the requested id.
	ErrNotFound = errors.New("incident not found")

	// ErrInvalidTransition is returned when a status change is not allowed by the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotExecutable is returned when remediation is requested for an incident that cannot be acted on.
	ErrNotExecutable = errors.New("incident action not executable")

	// ErrSchemaViolation is returned when an analysis or status fails the shape contract.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrUpstreamUnavailable marks failures of the classification capability or
	// execution backend. Callers receive a usable fallback value alongside it.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
