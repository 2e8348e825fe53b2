// Package server implements the MCP (Model Context Protocol) server for the
// layout tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one message per line:
//   - Input: requests on stdin, read only when the previous response is out
//   - Output: exactly one response line per request on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate registered tools in registration order
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//   - notifications/*: Accepted silently
//
// # Two Error Layers
//
// Failures in the request itself are protocol errors and come back as the
// JSON-RPC error member:
//   - -32700: the line is not valid JSON, is too large, or stalled midway
//   - -32600: the envelope is malformed (jsonrpc, id or method)
//   - -32601: the method or the tool name is unknown
//   - -32602: tools/call params are malformed
//
// Once a registered tool has run, the response is always a result:
//
//	{"content":[{"type":"text","text":"{\"success\":false,\"operation\":\"add_page\",\"result\":\"...\"}"}]}
//
// The embedded ToolResult carries the tool-level verdict. Handler errors and
// panics never escape the dispatcher.
//
// # Session
//
// Each Server owns one session.Session and passes it to every handler call.
// Because requests are handled one at a time the session needs no locking.
//
// # Usage
//
//	reg := registry.New()
//	if err := tools.Register(reg, deps); err != nil {
//	    return err
//	}
//	srv := server.New(reg, server.WithLogger(logger))
//	return srv.Run(ctx)
package server
