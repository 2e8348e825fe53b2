package toolresult

import (
	"errors"
	"fmt"
)

// Kind classifies a tool failure.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindState          Kind = "state"
	KindHostAutomation Kind = "host_automation"
	KindInternal       Kind = "internal"
)

// ValidationError reports an argument that failed a type or range check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Message
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StateError reports a missing session precondition.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

var (
	// ErrNoDocument is returned by every document-dependent tool while no
	// document is open.
	ErrNoDocument = &StateError{Message: "no document is open; call create_document first"}

	// ErrDocumentOpen is returned by create_document when a document is
	// already open.
	ErrDocumentOpen = &StateError{Message: "a document is already open; call close_document or clear_session first"}
)

// HostAutomationError wraps a failure reported by the host automation bridge.
type HostAutomationError struct {
	Err error
}

func (e *HostAutomationError) Error() string {
	if e.Err == nil {
		return "host automation failed"
	}
	return "host automation failed: " + e.Err.Error()
}

func (e *HostAutomationError) Unwrap() error { return e.Err }

// InternalError is an unexpected handler fault. Panic is set when the fault was
// a recovered panic; Stack holds the goroutine stack at recovery.
type InternalError struct {
	Err   error
	Panic any
	Stack []byte
}

func (e *InternalError) Error() string {
	switch {
	case e.Err != nil:
		return "internal error: " + e.Err.Error()
	case e.Panic != nil:
		return fmt.Sprintf("internal error: %v", e.Panic)
	default:
		return "internal error"
	}
}

func (e *InternalError) Unwrap() error { return e.Err }

// KindOf classifies err. Errors that are none of the known kinds are internal.
func KindOf(err error) Kind {
	var (
		validation *ValidationError
		state      *StateError
		host       *HostAutomationError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &state):
		return KindState
	case errors.As(err, &host):
		return KindHostAutomation
	default:
		return KindInternal
	}
}
