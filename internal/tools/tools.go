// Package tools implements the layout tools served over MCP.
//
// Every handler follows the same order: check the session precondition,
// decode and validate arguments, send the host command, then mutate the
// session. A handler therefore never leaves the session half-updated: if the
// host rejects a command, nothing was recorded.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ironsheep/layout-tools-mcp/internal/bridge"
	"github.com/ironsheep/layout-tools-mcp/internal/imaging"
	"github.com/ironsheep/layout-tools-mcp/internal/logging"
	"github.com/ironsheep/layout-tools-mcp/internal/ocr"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// DefaultPreviewScale is the preview resolution in pixels per point when
// neither the caller nor the configuration chooses one.
const DefaultPreviewScale = 2.0

// TextExtractor runs OCR over an image file.
type TextExtractor func(ctx context.Context, path, lang string) (*ocr.Result, error)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Bridge bridge.Bridge
	Images *imaging.ImageCache
	Logger *slog.Logger
	// PreviewScale is the default scale of export_page_preview.
	PreviewScale float64
	// OCR defaults to ocr.ExtractText with OCROptions.
	OCR        TextExtractor
	OCROptions ocr.Options
}

type toolset struct {
	bridge       bridge.Bridge
	images       *imaging.ImageCache
	logger       *slog.Logger
	previewScale float64
	ocr          TextExtractor
}

type toolDef struct {
	descriptor registry.Descriptor
	handle     registry.HandlerFunc
}

// Register adds every layout tool to reg in catalog order.
func Register(reg *registry.Registry, deps Deps) error {
	if deps.Bridge == nil {
		return errors.New("tools: a host bridge is required")
	}
	t := &toolset{
		bridge:       deps.Bridge,
		images:       deps.Images,
		logger:       deps.Logger,
		previewScale: deps.PreviewScale,
		ocr:          deps.OCR,
	}
	if t.images == nil {
		t.images = imaging.NewImageCache()
	}
	if t.logger == nil {
		t.logger = logging.Nop()
	}
	if t.previewScale <= 0 {
		t.previewScale = DefaultPreviewScale
	}
	if t.ocr == nil {
		opts := deps.OCROptions
		t.ocr = func(ctx context.Context, path, lang string) (*ocr.Result, error) {
			return ocr.ExtractText(ctx, path, lang, opts)
		}
	}

	var defs []toolDef
	defs = append(defs, t.documentTools()...)
	defs = append(defs, t.pageTools()...)
	defs = append(defs, t.frameTools()...)
	defs = append(defs, t.styleTools()...)
	defs = append(defs, t.imageTools()...)
	for _, d := range defs {
		if err := reg.Register(d.descriptor, d.handle); err != nil {
			return err
		}
	}
	return nil
}

// host sends one command to the host application. Every bridge failure is a
// HostAutomationError.
func (t *toolset) host(ctx context.Context, action string, params map[string]any) (string, error) {
	reply, err := t.bridge.Execute(ctx, bridge.Command{Action: action, Params: params})
	if err != nil {
		if bridge.IsHostError(err) {
			t.logger.Info("host.rejected", "action", action, "error", err)
		} else {
			t.logger.Warn("host.failed", "action", action, "error", err)
		}
		return "", &toolresult.HostAutomationError{Err: err}
	}
	t.logger.Debug("host.command", "action", action, "reply", reply)
	return reply, nil
}

// decode unmarshals tool arguments into dst. Type mismatches become
// ValidationErrors naming the offending field.
func decode(args json.RawMessage, dst any) error {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(args, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return toolresult.Validationf(typeErr.Field, "must be %s, got %s", typeName(typeErr.Type), typeErr.Value)
		}
		return &toolresult.ValidationError{Message: err.Error()}
	}
	return nil
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return t.String()
	}
}

// need returns *v or a ValidationError when the argument was absent.
func need[T any](field string, v *T) (T, error) {
	if v == nil {
		var zero T
		return zero, toolresult.Validationf(field, "is required")
	}
	return *v, nil
}

func positive(field string, v float64) error {
	if v <= 0 {
		return toolresult.Validationf(field, "must be greater than 0, got %g", v)
	}
	return nil
}

// pageOrCurrent resolves an optional page index against the session.
func pageOrCurrent(sess *session.Session, page *int) (int, error) {
	idx := sess.CurrentPageIndex
	if page != nil {
		idx = *page
	}
	if err := sess.CheckPage(idx); err != nil {
		return 0, err
	}
	return idx, nil
}

type geometryArgs struct {
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Width     *float64 `json:"width"`
	Height    *float64 `json:"height"`
	PageIndex *int     `json:"pageIndex"`
}

// bounds validates a frame rectangle. Frames may sit on the pasteboard, so
// only the size is range-checked.
func (g geometryArgs) bounds() (session.Bounds, error) {
	x, err := need("x", g.X)
	if err != nil {
		return session.Bounds{}, err
	}
	y, err := need("y", g.Y)
	if err != nil {
		return session.Bounds{}, err
	}
	w, err := need("width", g.Width)
	if err != nil {
		return session.Bounds{}, err
	}
	h, err := need("height", g.Height)
	if err != nil {
		return session.Bounds{}, err
	}
	if err := positive("width", w); err != nil {
		return session.Bounds{}, err
	}
	if err := positive("height", h); err != nil {
		return session.Bounds{}, err
	}
	return session.Bounds{X: x, Y: y, Width: w, Height: h}, nil
}

func boundsParams(b session.Bounds) map[string]any {
	return map[string]any{"x": b.X, "y": b.Y, "width": b.Width, "height": b.Height}
}

// Schema helpers. Descriptors are plain maps so tools/list serialises them
// exactly as written.

func object(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func propDefault(typ, description string, def any) map[string]any {
	return map[string]any{"type": typ, "description": description, "default": def}
}

func enum(description string, def string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values, "default": def}
}

func geometryProps(extra map[string]any) map[string]any {
	props := map[string]any{
		"x":         prop("number", "Left edge in document units"),
		"y":         prop("number", "Top edge in document units"),
		"width":     prop("number", "Width in document units (> 0)"),
		"height":    prop("number", "Height in document units (> 0)"),
		"pageIndex": prop("integer", "0-based page index; defaults to the current page"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func describe(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
