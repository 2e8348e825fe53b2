package tools

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/ironsheep/layout-tools-mcp/internal/imaging"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

const (
	defaultFontFamily = "Minion Pro"
	defaultFontSize   = 12.0
	// maxFontSize is the host's limit in points.
	maxFontSize = 1296.0
	// autoLeading is the leading used when none is given, relative to the
	// font size.
	autoLeading = 1.2
)

func (t *toolset) styleTools() []toolDef {
	return []toolDef{
		{
			descriptor: registry.Descriptor{
				Name:        "create_paragraph_style",
				Description: "Create a named paragraph style.",
				InputSchema: object([]string{"name"}, map[string]any{
					"name":        prop("string", "Unique style name"),
					"fontFamily":  propDefault("string", "Font family", defaultFontFamily),
					"fontSize":    propDefault("number", "Font size in points", defaultFontSize),
					"leading":     prop("number", "Leading in points; defaults to 120% of the font size"),
					"colorSwatch": prop("string", "Name of an existing colour swatch for the text"),
				}),
			},
			handle: t.createParagraphStyle,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "create_color_swatch",
				Description: "Create a named RGB colour swatch from a hex value and report it in other colour spaces.",
				InputSchema: object([]string{"name", "hex"}, map[string]any{
					"name": prop("string", "Unique swatch name"),
					"hex":  prop("string", "Colour as #RRGGBB or #RGB"),
				}),
			},
			handle: t.createColorSwatch,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "list_styles",
				Description: "List paragraph styles and colour swatches in creation order.",
				InputSchema: object(nil, map[string]any{}),
			},
			handle: t.listStyles,
		},
	}
}

type createParagraphStyleArgs struct {
	Name        *string  `json:"name"`
	FontFamily  string   `json:"fontFamily"`
	FontSize    *float64 `json:"fontSize"`
	Leading     *float64 `json:"leading"`
	ColorSwatch string   `json:"colorSwatch"`
}

func (t *toolset) createParagraphStyle(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args createParagraphStyleArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	style, err := args.style(sess)
	if err != nil {
		return nil, err
	}

	params := map[string]any{
		"name":       style.Name,
		"fontFamily": style.FontFamily,
		"fontSize":   style.FontSize,
		"leading":    style.Leading,
	}
	if style.ColorSwatch != "" {
		params["colorSwatch"] = style.ColorSwatch
	}
	if _, err := t.host(ctx, "style.createParagraph", params); err != nil {
		return nil, err
	}
	if err := sess.AddStyle(style); err != nil {
		return nil, err
	}
	return style, nil
}

func (a createParagraphStyleArgs) style(sess *session.Session) (session.ParagraphStyle, error) {
	name, err := need("name", a.Name)
	if err != nil {
		return session.ParagraphStyle{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return session.ParagraphStyle{}, toolresult.Validationf("name", "must not be empty")
	}
	if _, exists := sess.Style(name); exists {
		return session.ParagraphStyle{}, toolresult.Validationf("name", "paragraph style %q already exists", name)
	}

	size := defaultFontSize
	if a.FontSize != nil {
		size = *a.FontSize
	}
	if size <= 0 || size > maxFontSize {
		return session.ParagraphStyle{}, toolresult.Validationf("fontSize", "must be greater than 0 and at most %g, got %g", maxFontSize, size)
	}
	leading := math.Round(size*autoLeading*100) / 100
	if a.Leading != nil {
		leading = *a.Leading
	}
	if err := positive("leading", leading); err != nil {
		return session.ParagraphStyle{}, err
	}
	if a.ColorSwatch != "" {
		if _, ok := sess.Swatch(a.ColorSwatch); !ok {
			return session.ParagraphStyle{}, toolresult.Validationf("colorSwatch", "swatch %q does not exist", a.ColorSwatch)
		}
	}
	family := strings.TrimSpace(a.FontFamily)
	if family == "" {
		family = defaultFontFamily
	}
	return session.ParagraphStyle{
		Name:        name,
		FontFamily:  family,
		FontSize:    size,
		Leading:     leading,
		ColorSwatch: a.ColorSwatch,
	}, nil
}

type createColorSwatchArgs struct {
	Name *string `json:"name"`
	Hex  *string `json:"hex"`
}

// SwatchCreated is the payload of create_color_swatch.
type SwatchCreated struct {
	Name string `json:"name"`
	imaging.ColorResult
}

func (t *toolset) createColorSwatch(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args createColorSwatchArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	name, err := need("name", args.Name)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, toolresult.Validationf("name", "must not be empty")
	}
	if _, exists := sess.Swatch(name); exists {
		return nil, toolresult.Validationf("name", "swatch %q already exists", name)
	}
	hex, err := need("hex", args.Hex)
	if err != nil {
		return nil, err
	}
	c, err := imaging.ParseHex(hex)
	if err != nil {
		return nil, toolresult.Validationf("hex", "%v", err)
	}

	if _, err := t.host(ctx, "swatch.create", map[string]any{
		"name":  name,
		"model": "RGB",
		"hex":   c.Hex,
		"rgb":   []int{int(c.RGB.R), int(c.RGB.G), int(c.RGB.B)},
	}); err != nil {
		return nil, err
	}
	if err := sess.AddSwatch(session.Swatch{Name: name, Hex: c.Hex, R: c.RGB.R, G: c.RGB.G, B: c.RGB.B}); err != nil {
		return nil, err
	}
	return SwatchCreated{Name: name, ColorResult: *c}, nil
}

func (t *toolset) listStyles(_ context.Context, _ json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	styles := append([]session.ParagraphStyle{}, sess.Styles...)
	swatches := append([]session.Swatch{}, sess.Swatches...)
	return map[string]any{"paragraphStyles": styles, "swatches": swatches}, nil
}
