package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Error types for consistent error handling across the BFF.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a single-field validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrFieldErrors carries the full set of per-field validation errors
// collected on submit. All failing fields are reported at once so the
// dashboard can mark every one of them.
type ErrFieldErrors struct {
	Fields map[string]string
}

func (e *ErrFieldErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// ErrUpstreamRejected indicates the platform API accepted the request at
// the transport level but rejected it at the application level
// (success=false in the response envelope). Message is the server's
// own message, which may be empty.
type ErrUpstreamRejected struct {
	Operation string
	Message   string
}

func (e *ErrUpstreamRejected) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected: %s", e.Operation)
}

// ErrSubmitInFlight indicates a submit was attempted while a previous
// submit on the same dialog is still outstanding.
type ErrSubmitInFlight struct {
	Dialog string
}

func (e *ErrSubmitInFlight) Error() string {
	return fmt.Sprintf("submit already in progress for %s dialog", e.Dialog)
}

// ErrDialogClosed indicates an operation was attempted on a dialog that
// is not open.
type ErrDialogClosed struct {
	Dialog string
}

func (e *ErrDialogClosed) Error() string {
	return fmt.Sprintf("%s dialog is not open", e.Dialog)
}
