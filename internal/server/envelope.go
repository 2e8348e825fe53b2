package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// Outcome is what the dispatcher decided for one request: either a result or
// a protocol fault. It is converted to wire form only at the boundary.
type Outcome struct {
	result any
	fault  *ErrorObject
}

// Ok is a protocol-successful outcome carrying result.
func Ok(result any) Outcome {
	return Outcome{result: result}
}

// ProtocolFault is a protocol-level failure. data may be nil.
func ProtocolFault(code int, message string, data any) Outcome {
	return Outcome{fault: &ErrorObject{Code: code, Message: message, Data: data}}
}

// IsFault reports whether o is a protocol fault.
func (o Outcome) IsFault() bool {
	return o.fault != nil
}

// Fault returns the error object of a protocol fault, or nil.
func (o Outcome) Fault() *ErrorObject {
	return o.fault
}

// Response renders o for the request identified by id. A nil id is sent as
// null.
func (o Outcome) Response(id json.RawMessage) Response {
	if len(id) == 0 {
		id = nullID
	}
	if o.fault != nil {
		return Response{JSONRPC: jsonrpcVersion, ID: id, Error: o.fault}
	}
	result := o.result
	if result == nil {
		result = map[string]any{}
	}
	return Response{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

// toolOutcome wraps a ToolResult into the single-item content envelope. The
// ToolResult is serialised as text; a payload that cannot be serialised is
// replaced by an internal failure so the client still gets one response.
func toolOutcome(res toolresult.Result) Outcome {
	text, err := json.Marshal(res)
	if err != nil {
		failed := toolresult.Fail(res.Operation, fmt.Sprintf("internal error: result is not serializable: %v", err))
		text, _ = json.Marshal(failed)
	}
	return Ok(CallResult{Content: []Content{{Type: "text", Text: string(text)}}})
}
