// Package registry maps tool names to their descriptors and handlers.
//
// A Registry is filled once at startup and only read afterwards. Registration
// order is preserved because tools/list must return descriptors in a stable
// order; clients that introspect the tool count depend on it.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// ErrDuplicateTool is returned when a name is registered twice.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Descriptor is the MCP tool definition returned by tools/list.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Handler implements one tool.
//
// Expected business failures are returned as errors from the toolresult
// package (or as a toolresult.Result with Success false). Any other error or
// panic is treated as an internal fault by Invoke.
type Handler interface {
	Handle(ctx context.Context, args json.RawMessage, sess *session.Session) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, args json.RawMessage, sess *session.Session) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, args json.RawMessage, sess *session.Session) (any, error) {
	return f(ctx, args, sess)
}

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// Registry is an ordered set of tools.
type Registry struct {
	order []string
	tools map[string]Tool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Empty names, nil handlers and duplicate names are
// rejected.
func (r *Registry) Register(d Descriptor, h Handler) error {
	if d.Name == "" {
		return errors.New("tool name is required")
	}
	if h == nil {
		return fmt.Errorf("tool %s: handler is required", d.Name)
	}
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	if d.InputSchema == nil {
		d.InputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	r.tools[d.Name] = Tool{Descriptor: d, Handler: h}
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(d Descriptor, h Handler) {
	if err := r.Register(d, h); err != nil {
		panic(err)
	}
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Invoke runs the tool's handler and contains every fault it can raise.
//
// A nil error always comes with a Result whose Operation is the tool name. A
// non-nil error is one of the toolresult kinds; panics are recovered into a
// *toolresult.InternalError so the caller never unwinds.
func Invoke(ctx context.Context, t Tool, args json.RawMessage, sess *session.Session) (res toolresult.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = toolresult.Result{}
			err = &toolresult.InternalError{Panic: p, Stack: debug.Stack()}
		}
	}()

	out, err := t.Handler.Handle(ctx, args, sess)
	if err != nil {
		if toolresult.KindOf(err) == toolresult.KindInternal {
			var internal *toolresult.InternalError
			if !errors.As(err, &internal) {
				err = &toolresult.InternalError{Err: err}
			}
		}
		return toolresult.Result{}, err
	}
	if r, ok := out.(toolresult.Result); ok {
		if r.Operation == "" {
			r.Operation = t.Name
		}
		return r, nil
	}
	return toolresult.OK(t.Name, out), nil
}
