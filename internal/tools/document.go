package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

const (
	defaultDocumentName = "Untitled"
	maxPages            = 9999
	// defaultMarginPoints is half an inch on every side.
	defaultMarginPoints = 36
	documentExt         = ".indd"
)

func (t *toolset) documentTools() []toolDef {
	return []toolDef{
		{
			descriptor: registry.Descriptor{
				Name:        "create_document",
				Description: "Create a new document in the host application. Only one document can be open at a time.",
				InputSchema: object([]string{"width", "height"}, map[string]any{
					"width":  prop("number", "Page width in document units (> 0)"),
					"height": prop("number", "Page height in document units (> 0)"),
					"pages":  propDefault("integer", "Number of pages (1-9999)", 1),
					"units":  enum("Measurement units for every length argument", DefaultUnits, unitNames()...),
					"margins": map[string]any{
						"description": "Page margins: one number for all sides or an object with top, bottom, left and right",
						"oneOf": []any{
							map[string]any{"type": "number"},
							object(nil, map[string]any{
								"top":    prop("number", "Top margin"),
								"bottom": prop("number", "Bottom margin"),
								"left":   prop("number", "Left (inside) margin"),
								"right":  prop("number", "Right (outside) margin"),
							}),
						},
					},
					"facingPages": propDefault("boolean", "Lay pages out as spreads", false),
					"name":        propDefault("string", "Document name", defaultDocumentName),
				}),
			},
			handle: t.createDocument,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "get_document_info",
				Description: "Describe the open document: geometry, page count, current page and item counts.",
				InputSchema: object(nil, map[string]any{}),
			},
			handle: t.getDocumentInfo,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "save_document",
				Description: "Save the open document. The .indd extension is added when missing.",
				InputSchema: object([]string{"filePath"}, map[string]any{
					"filePath": prop("string", "Destination path; the parent directory must exist"),
				}),
			},
			handle: t.saveDocument,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "close_document",
				Description: "Close the open document in the host application and reset the session.",
				InputSchema: object(nil, map[string]any{
					"save": propDefault("boolean", "Save to the last saved path before closing", false),
				}),
			},
			handle: t.closeDocument,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "clear_session",
				Description: "Forget the open document without contacting the host application.",
				InputSchema: object(nil, map[string]any{}),
			},
			handle: t.clearSession,
		},
	}
}

type createDocumentArgs struct {
	Width       *float64        `json:"width"`
	Height      *float64        `json:"height"`
	Pages       *int            `json:"pages"`
	Units       string          `json:"units"`
	Margins     json.RawMessage `json:"margins"`
	FacingPages bool            `json:"facingPages"`
	Name        string          `json:"name"`
}

// DocumentInfo is the payload of create_document and get_document_info.
type DocumentInfo struct {
	Name             string          `json:"name"`
	Width            float64         `json:"width"`
	Height           float64         `json:"height"`
	Units            string          `json:"units"`
	Margins          session.Margins `json:"margins"`
	FacingPages      bool            `json:"facingPages"`
	PageCount        int             `json:"pageCount"`
	CurrentPageIndex int             `json:"currentPageIndex"`
	FilePath         string          `json:"filePath,omitempty"`
	Counts           DocumentCounts  `json:"counts"`
}

// DocumentCounts are the number of items the session tracks.
type DocumentCounts struct {
	Frames          int `json:"frames"`
	ParagraphStyles int `json:"paragraphStyles"`
	Swatches        int `json:"swatches"`
	Images          int `json:"images"`
}

func documentInfo(sess *session.Session) DocumentInfo {
	return DocumentInfo{
		Name:             sess.Name,
		Width:            sess.Width,
		Height:           sess.Height,
		Units:            sess.Units,
		Margins:          sess.Margins,
		FacingPages:      sess.FacingPages,
		PageCount:        sess.PageCount,
		CurrentPageIndex: sess.CurrentPageIndex,
		FilePath:         sess.FilePath,
		Counts: DocumentCounts{
			Frames:          len(sess.Frames),
			ParagraphStyles: len(sess.Styles),
			Swatches:        len(sess.Swatches),
			Images:          len(sess.Images),
		},
	}
}

func (t *toolset) createDocument(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if sess.DocumentOpen {
		return nil, toolresult.ErrDocumentOpen
	}
	var args createDocumentArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	spec, err := args.spec()
	if err != nil {
		return nil, err
	}

	if _, err := t.host(ctx, "document.create", map[string]any{
		"name":        spec.Name,
		"width":       spec.Width,
		"height":      spec.Height,
		"units":       spec.Units,
		"pages":       spec.Pages,
		"facingPages": spec.FacingPages,
		"margins":     spec.Margins,
	}); err != nil {
		return nil, err
	}
	if err := sess.Open(spec); err != nil {
		return nil, err
	}
	t.clearImages()
	return documentInfo(sess), nil
}

func (a createDocumentArgs) spec() (session.DocumentSpec, error) {
	units, err := parseUnits(a.Units)
	if err != nil {
		return session.DocumentSpec{}, err
	}
	width, err := need("width", a.Width)
	if err != nil {
		return session.DocumentSpec{}, err
	}
	height, err := need("height", a.Height)
	if err != nil {
		return session.DocumentSpec{}, err
	}
	for _, edge := range []struct {
		field string
		v     float64
	}{{"width", width}, {"height", height}} {
		if err := positive(edge.field, edge.v); err != nil {
			return session.DocumentSpec{}, err
		}
		if toPoints(edge.v, units) > maxPagePoints {
			return session.DocumentSpec{}, toolresult.Validationf(edge.field, "must be at most %g %s", fromPoints(maxPagePoints, units), units)
		}
	}

	pages := 1
	if a.Pages != nil {
		pages = *a.Pages
	}
	if pages < 1 || pages > maxPages {
		return session.DocumentSpec{}, toolresult.Validationf("pages", "must be between 1 and %d, got %d", maxPages, pages)
	}

	margins, err := parseMargins(a.Margins, units)
	if err != nil {
		return session.DocumentSpec{}, err
	}
	if margins.Top >= height/2 || margins.Bottom >= height/2 || margins.Left >= width/2 || margins.Right >= width/2 {
		return session.DocumentSpec{}, toolresult.Validationf("margins", "each margin must be smaller than half the page")
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = defaultDocumentName
	}
	return session.DocumentSpec{
		Name:        name,
		Width:       width,
		Height:      height,
		Units:       units,
		Pages:       pages,
		Margins:     margins,
		FacingPages: a.FacingPages,
	}, nil
}

// parseMargins accepts a number for all sides or an object naming each side.
// Sides missing from the object are zero.
func parseMargins(raw json.RawMessage, units string) (session.Margins, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		m := fromPoints(defaultMarginPoints, units)
		return session.Margins{Top: m, Bottom: m, Left: m, Right: m}, nil
	}

	var m session.Margins
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &m); err != nil {
			return session.Margins{}, toolresult.Validationf("margins", "must be a number or an object of numbers")
		}
	} else {
		var all float64
		if err := json.Unmarshal(raw, &all); err != nil {
			return session.Margins{}, toolresult.Validationf("margins", "must be a number or an object of numbers")
		}
		m = session.Margins{Top: all, Bottom: all, Left: all, Right: all}
	}
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return session.Margins{}, toolresult.Validationf("margins", "must not be negative")
	}
	return m, nil
}

func (t *toolset) getDocumentInfo(_ context.Context, _ json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	return documentInfo(sess), nil
}

type saveDocumentArgs struct {
	FilePath *string `json:"filePath"`
}

func (t *toolset) saveDocument(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args saveDocumentArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	path, err := documentPath(args.FilePath)
	if err != nil {
		return nil, err
	}

	if _, err := t.host(ctx, "document.save", map[string]any{"filePath": path}); err != nil {
		return nil, err
	}
	sess.FilePath = path
	return map[string]any{"filePath": path, "saved": true}, nil
}

// documentPath validates a save destination and normalises its extension.
func documentPath(p *string) (string, error) {
	path, err := need("filePath", p)
	if err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", toolresult.Validationf("filePath", "must not be empty")
	}
	if !strings.EqualFold(filepath.Ext(path), documentExt) {
		path += documentExt
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", toolresult.Validationf("filePath", "cannot resolve %q: %v", path, err)
	}
	dir := filepath.Dir(abs)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", toolresult.Validationf("filePath", "directory %s does not exist", dir)
	}
	return abs, nil
}

type closeDocumentArgs struct {
	Save bool `json:"save"`
}

func (t *toolset) closeDocument(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args closeDocumentArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if args.Save && sess.FilePath == "" {
		return nil, toolresult.Validationf("save", "the document has never been saved; call save_document first")
	}

	if _, err := t.host(ctx, "document.close", map[string]any{"save": args.Save}); err != nil {
		return nil, err
	}
	name, path := sess.Name, sess.FilePath
	sess.Reset()
	t.clearImages()

	out := map[string]any{"closed": name, "saved": args.Save}
	if args.Save {
		out["filePath"] = path
	}
	return out, nil
}

func (t *toolset) clearSession(_ context.Context, _ json.RawMessage, sess *session.Session) (any, error) {
	hadDocument := sess.DocumentOpen
	sess.Reset()
	t.clearImages()
	return map[string]any{"cleared": true, "hadDocument": hadDocument}, nil
}

// clearImages drops every decoded image when the document goes away.
func (t *toolset) clearImages() {
	if n := t.images.Len(); n > 0 {
		t.logger.Debug("images.cleared", "entries", n)
	}
	t.images.Clear()
}
