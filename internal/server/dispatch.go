package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ironsheep/layout-tools-mcp/internal/journal"
	"github.com/ironsheep/layout-tools-mcp/internal/logging"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/telemetry"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
	"go.opentelemetry.io/otel/trace"
)

// Handle processes one frame. It returns false when no response must be
// written, which is only the case for notifications.
func (s *Server) Handle(ctx context.Context, frame []byte) (Response, bool) {
	start := time.Now()

	frame = bytes.TrimSpace(frame)
	if !json.Valid(frame) {
		s.logger.Warn("rpc.parse_error", "bytes", len(frame))
		return s.reject(ctx, nil, "", ProtocolFault(CodeParseError, "parse error", nil), start), true
	}
	if frame[0] == '[' {
		return s.reject(ctx, nil, "", ProtocolFault(CodeInvalidRequest, "batch requests are not supported", nil), start), true
	}

	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		return s.reject(ctx, nil, "", ProtocolFault(CodeInvalidRequest, "invalid request", err.Error()), start), true
	}
	if !req.IsNotification() && !validID(req.ID) {
		return s.reject(ctx, nil, req.Method, ProtocolFault(CodeInvalidRequest, "invalid request", "id must be a string, number or null"), start), true
	}
	if req.JSONRPC != jsonrpcVersion {
		return s.reject(ctx, req.ID, req.Method, ProtocolFault(CodeInvalidRequest, "invalid request", `jsonrpc must be "2.0"`), start), true
	}
	if req.Method == "" {
		return s.reject(ctx, req.ID, "", ProtocolFault(CodeInvalidRequest, "invalid request", "method is required"), start), true
	}

	if strings.HasPrefix(req.Method, "notifications/") {
		s.logger.Debug("rpc.notification", "method", req.Method)
		if req.IsNotification() {
			return Response{}, false
		}
		return Ok(nil).Response(req.ID), true
	}
	if req.IsNotification() {
		// Every non-notification method owes the client a response, which
		// cannot be addressed without an id.
		s.logger.Warn("rpc.missing_id", "method", req.Method)
		return s.reject(ctx, nil, req.Method, ProtocolFault(CodeInvalidRequest, "invalid request", "id is required for "+req.Method), start), true
	}

	s.noteID(req.ID)
	s.logger.Debug("rpc.request", "id", string(req.ID), "method", req.Method)

	var (
		outcome Outcome
		call    callInfo
	)
	ctx, span := s.instruments.Start(ctx, req.Method, toolName(&req))
	switch req.Method {
	case "initialize":
		outcome = Ok(s.initializeResult())
	case "ping":
		outcome = Ok(nil)
	case "tools/list":
		outcome = Ok(map[string]any{"tools": s.registry.List()})
	case "tools/call":
		outcome, call = s.callTool(ctx, &req)
	default:
		outcome = ProtocolFault(CodeMethodNotFound, "unknown method: "+req.Method, nil)
	}

	resp := s.finish(ctx, req.ID, span, req.Method, call, outcome, start)
	return resp, true
}

// callInfo describes a tools/call that reached a handler.
type callInfo struct {
	tool    string
	success bool
	kind    toolresult.Kind
}

// callTool resolves and runs a tools/call. The returned callInfo is zero
// unless a registered tool was invoked.
func (s *Server) callTool(ctx context.Context, req *Request) (Outcome, callInfo) {
	if isAbsent(req.Params) || !isObject(req.Params) {
		return ProtocolFault(CodeInvalidParams, "invalid params", "params must be an object with a tool name"), callInfo{}
	}
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ProtocolFault(CodeInvalidParams, "invalid params", err.Error()), callInfo{}
	}
	if params.Name == "" {
		return ProtocolFault(CodeInvalidParams, "invalid params", "params.name is required"), callInfo{}
	}
	args := params.Arguments
	switch {
	case isAbsent(args):
		args = json.RawMessage("{}")
	case !isObject(args):
		return ProtocolFault(CodeInvalidParams, "invalid params", "params.arguments must be an object"), callInfo{}
	}

	t, ok := s.registry.Lookup(params.Name)
	if !ok {
		s.logger.Warn("tool.unknown", "id", string(req.ID), "tool", params.Name)
		return ProtocolFault(CodeMethodNotFound, "unknown tool: "+params.Name, map[string]any{"name": params.Name}), callInfo{}
	}

	if s.logger.Enabled(ctx, slog.LevelDebug) {
		s.logger.Debug("tool.call", "id", string(req.ID), "tool", t.Name, "arguments", logging.RedactJSON(args))
	}

	started := time.Now()
	res, err := registry.Invoke(ctx, t, args, s.session)
	kind := toolresult.Kind("")
	if err != nil {
		kind = toolresult.KindOf(err)
		s.logToolError(req.ID, t.Name, kind, err)
		res = toolresult.FromError(t.Name, err)
	} else if !res.Success {
		s.logger.Info("tool.failed", "id", string(req.ID), "tool", t.Name, "error", fmt.Sprint(res.Result))
	}
	s.record(ctx, journal.Entry{
		RequestID: string(req.ID),
		Tool:      t.Name,
		Success:   res.Success,
		ErrorKind: string(kind),
		Duration:  time.Since(started),
		CreatedAt: started,
	})
	return toolOutcome(res), callInfo{tool: t.Name, success: res.Success, kind: kind}
}

func (s *Server) logToolError(id json.RawMessage, tool string, kind toolresult.Kind, err error) {
	attrs := []any{"id", string(id), "tool", tool, "kind", string(kind), "error", err.Error()}
	if kind != toolresult.KindInternal {
		s.logger.Info("tool.failed", attrs...)
		return
	}
	var internal *toolresult.InternalError
	if errors.As(err, &internal) && internal.Stack != nil {
		attrs = append(attrs, "stack", string(internal.Stack))
	}
	s.logger.Error("tool.internal_error", attrs...)
}

// invalidMethod names the span of a request rejected before its method was
// known.
const invalidMethod = "rpc.invalid"

// reject answers a request that failed envelope checks. It is traced and
// counted like any other request.
func (s *Server) reject(ctx context.Context, id json.RawMessage, method string, outcome Outcome, start time.Time) Response {
	if method == "" {
		method = invalidMethod
	}
	ctx, span := s.instruments.Start(ctx, method, "")
	return s.finish(ctx, id, span, method, callInfo{}, outcome, start)
}

// finish renders outcome and closes the request's span and metrics.
func (s *Server) finish(ctx context.Context, id json.RawMessage, span trace.Span, method string, call callInfo, outcome Outcome, start time.Time) Response {
	resp := outcome.Response(id)
	status, kind := "ok", ""
	if outcome.IsFault() {
		f := outcome.Fault()
		status, kind = "protocol_error", codeName(f.Code)
		s.logger.Debug("rpc.error", "id", string(resp.ID), "method", method, "code", f.Code, "message", f.Message)
	} else if call.tool != "" && !call.success {
		status, kind = "tool_error", string(call.kind)
	}
	s.instruments.End(ctx, span, telemetry.Outcome{Method: method, Tool: call.tool, Status: status, Kind: kind}, time.Since(start))
	s.logger.Debug("rpc.response", "id", string(resp.ID), "method", method, "status", status, "duration_ms", time.Since(start).Milliseconds())
	return resp
}

func (s *Server) record(ctx context.Context, e journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.logger.Warn("journal.write_failed", "tool", e.Tool, "error", err)
	}
}

func (s *Server) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	}
}

// noteID warns when id was already used by one of the recent requests. Ids
// are opaque: a repeat is still answered normally.
func (s *Server) noteID(id json.RawMessage) {
	key := string(id)
	for _, seen := range s.recentIDs {
		if seen == key {
			s.logger.Warn("rpc.duplicate_id", "id", key, "window", len(s.recentIDs))
			break
		}
	}
	s.recentIDs[s.nextID] = key
	s.nextID = (s.nextID + 1) % len(s.recentIDs)
}

func toolName(req *Request) string {
	if req.Method != "tools/call" || !isObject(req.Params) {
		return ""
	}
	var p ToolCallParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return ""
	}
	return p.Name
}

func codeName(code int) string {
	switch code {
	case CodeParseError:
		return "parse_error"
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInvalidParams:
		return "invalid_params"
	case CodeInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("code_%d", code)
	}
}
