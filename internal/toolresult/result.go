// Package toolresult defines the in-band envelope every tool call produces and the
// error kinds a tool failure is classified into.
//
// A ToolResult is what a client finds after unwrapping the protocol response: the
// JSON text in content[0].text. Its Success flag is the tool-level verdict and is
// independent of the protocol-level outcome, which is always successful once a
// registered tool has run.
//
// # Error Kinds
//
//   - ValidationError: arguments failed type or range checks
//   - StateError: the session precondition (an open document) does not hold
//   - HostAutomationError: the host application rejected a bridge command
//   - InternalError: anything else, including recovered handler panics
//
// All four surface as Result{Success: false} with the error message in Result.
package toolresult

// Result is the inner success/failure envelope returned for a tool call.
type Result struct {
	// Success is the tool-level verdict.
	Success bool `json:"success"`

	// Operation names the tool that produced the result.
	Operation string `json:"operation,omitempty"`

	// Result is either a structured payload (on success) or the failure message.
	Result any `json:"result"`
}

// OK wraps a successful payload.
func OK(operation string, payload any) Result {
	return Result{Success: true, Operation: operation, Result: payload}
}

// Fail builds an unsuccessful result carrying message.
func Fail(operation, message string) Result {
	return Result{Success: false, Operation: operation, Result: message}
}

// FromError converts a handler error into an unsuccessful result. The error's
// message is preserved verbatim so host and state messages reach the client.
func FromError(operation string, err error) Result {
	if err == nil {
		return Fail(operation, "unknown error")
	}
	return Fail(operation, err.Error())
}
