package domain

import "fmt"

// ============================================================
// Request errors
// ============================================================

// ErrNotFound is returned when a row the caller named does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation rejects a request field. Field is the JSON name.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized covers missing or bad tokens and failed sign-ins.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden is returned when the caller may not perform Action.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict is returned when the request does not fit the current state
// (wrong onboarding step, locked module).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string { return e.Message }

// ============================================================
// Backend errors
// ============================================================

// ErrBackend carries a non-2xx answer. Message is the raw backend text and
// reaches the caller unchanged.
type ErrBackend struct {
	Status  int
	Message string
}

func (e *ErrBackend) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Temporary reports whether a retry could succeed.
func (e *ErrBackend) Temporary() bool {
	return e.Status >= 500 || e.Status == 429
}

// ErrExternalService wraps a failed call to an outside service.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error { return e.Err }

// ErrTimeout is returned when a backend call ran past its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen is returned while the breaker of Service rejects calls.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
