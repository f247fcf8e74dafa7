// Package errs holds the error taxonomy shared by the automation core.
// Handlers map these types onto HTTP statuses; background ticks log them
// per campaign and keep going.
package errs

import "fmt"

// ConfigurationError rejects malformed operator input (non-positive
// thresholds, broken schedule windows) at creation time.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an illegal action state transition. State is left
// unchanged by the caller.
type ConflictError struct {
	ActionID string
	From     string
	To       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("action %s: illegal transition %s -> %s", e.ActionID, e.From, e.To)
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ExternalCallError wraps a failure from a collaborator service
// (marketplace API, metrics source, estimation service).
type ExternalCallError struct {
	Service string
	Err     error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}
