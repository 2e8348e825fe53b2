package tools

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/ironsheep/layout-tools-mcp/internal/ids"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
	"github.com/sergi/go-diff/diffmatchpatch"
)

func (t *toolset) frameTools() []toolDef {
	return []toolDef{
		{
			descriptor: registry.Descriptor{
				Name:        "create_text_frame",
				Description: "Create a text frame with optional content and paragraph style.",
				InputSchema: object([]string{"x", "y", "width", "height"}, geometryProps(map[string]any{
					"content":        propDefault("string", "Initial text", ""),
					"paragraphStyle": propDefault("string", "Name of an existing paragraph style", session.DefaultParagraphStyle),
				})),
			},
			handle: t.createTextFrame,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "update_text_frame",
				Description: "Replace the text of a text frame and summarise what changed.",
				InputSchema: object([]string{"frameIndex", "content"}, map[string]any{
					"frameIndex": prop("integer", "0-based frame index as returned by list_frames"),
					"content":    prop("string", "New text"),
				}),
			},
			handle: t.updateTextFrame,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "create_rectangle",
				Description: "Create a rectangle, optionally filled with a swatch.",
				InputSchema: object([]string{"x", "y", "width", "height"}, geometryProps(map[string]any{
					"fillSwatch": prop("string", "Name of an existing colour swatch"),
				})),
			},
			handle: t.createRectangle,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "list_frames",
				Description: "List frames in creation order, optionally limited to one page.",
				InputSchema: object(nil, map[string]any{
					"pageIndex": prop("integer", "0-based page index; omit to list every page"),
				}),
			},
			handle: t.listFrames,
		},
	}
}

// FrameCreated is the payload of the frame creation tools.
type FrameCreated struct {
	FrameIndex int            `json:"frameIndex"`
	ID         string         `json:"id"`
	PageIndex  int            `json:"pageIndex"`
	Bounds     session.Bounds `json:"bounds"`
}

type createTextFrameArgs struct {
	geometryArgs
	Content        string `json:"content"`
	ParagraphStyle string `json:"paragraphStyle"`
}

func (t *toolset) createTextFrame(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args createTextFrameArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	bounds, err := args.bounds()
	if err != nil {
		return nil, err
	}
	page, err := pageOrCurrent(sess, args.PageIndex)
	if err != nil {
		return nil, err
	}
	style := args.ParagraphStyle
	if style == "" {
		style = session.DefaultParagraphStyle
	}
	if _, ok := sess.Style(style); !ok {
		return nil, toolresult.Validationf("paragraphStyle", "paragraph style %q does not exist", style)
	}

	id := ids.New()
	if _, err := t.host(ctx, "frame.createText", map[string]any{
		"id":             id,
		"pageIndex":      page,
		"bounds":         boundsParams(bounds),
		"content":        args.Content,
		"paragraphStyle": style,
	}); err != nil {
		return nil, err
	}
	index, err := sess.AddFrame(session.Frame{
		ID:             id,
		Kind:           session.FrameText,
		PageIndex:      page,
		Bounds:         bounds,
		Content:        args.Content,
		ParagraphStyle: style,
	})
	if err != nil {
		return nil, err
	}
	return FrameCreated{FrameIndex: index, ID: id, PageIndex: page, Bounds: bounds}, nil
}

type updateTextFrameArgs struct {
	FrameIndex *int    `json:"frameIndex"`
	Content    *string `json:"content"`
}

// TextChange summarises an update_text_frame edit in characters.
type TextChange struct {
	FrameIndex int    `json:"frameIndex"`
	ID         string `json:"id"`
	Changed    bool   `json:"changed"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
	Unchanged  int    `json:"unchanged"`
}

func (t *toolset) updateTextFrame(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args updateTextFrameArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	index, err := need("frameIndex", args.FrameIndex)
	if err != nil {
		return nil, err
	}
	content, err := need("content", args.Content)
	if err != nil {
		return nil, err
	}
	frame, err := sess.Frame(index)
	if err != nil {
		return nil, err
	}
	if frame.Kind != session.FrameText {
		return nil, toolresult.Validationf("frameIndex", "frame %d is a %s frame, not a text frame", index, frame.Kind)
	}

	if _, err := t.host(ctx, "frame.setText", map[string]any{"id": frame.ID, "content": content}); err != nil {
		return nil, err
	}
	change := diffText(frame.Content, content)
	change.FrameIndex = index
	change.ID = frame.ID
	frame.Content = content
	return change, nil
}

// diffText counts the characters inserted, deleted and kept between two
// versions of a story.
func diffText(before, after string) TextChange {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var c TextChange
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			c.Unchanged += n
		case diffmatchpatch.DiffDelete:
			c.Deletions += n
		case diffmatchpatch.DiffInsert:
			c.Insertions += n
		}
	}
	c.Changed = c.Insertions > 0 || c.Deletions > 0
	return c
}

type createRectangleArgs struct {
	geometryArgs
	FillSwatch string `json:"fillSwatch"`
}

func (t *toolset) createRectangle(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args createRectangleArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	bounds, err := args.bounds()
	if err != nil {
		return nil, err
	}
	page, err := pageOrCurrent(sess, args.PageIndex)
	if err != nil {
		return nil, err
	}
	if args.FillSwatch != "" {
		if _, ok := sess.Swatch(args.FillSwatch); !ok {
			return nil, toolresult.Validationf("fillSwatch", "swatch %q does not exist", args.FillSwatch)
		}
	}

	id := ids.New()
	params := map[string]any{
		"id":        id,
		"pageIndex": page,
		"bounds":    boundsParams(bounds),
	}
	if args.FillSwatch != "" {
		params["fillSwatch"] = args.FillSwatch
	}
	if _, err := t.host(ctx, "frame.createRectangle", params); err != nil {
		return nil, err
	}
	index, err := sess.AddFrame(session.Frame{
		ID:         id,
		Kind:       session.FrameRectangle,
		PageIndex:  page,
		Bounds:     bounds,
		FillSwatch: args.FillSwatch,
	})
	if err != nil {
		return nil, err
	}
	return FrameCreated{FrameIndex: index, ID: id, PageIndex: page, Bounds: bounds}, nil
}

func (t *toolset) listFrames(_ context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args pageIndexArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if args.PageIndex != nil {
		if err := sess.CheckPage(*args.PageIndex); err != nil {
			return nil, err
		}
	}
	frames := framesOn(sess, args.PageIndex)
	return map[string]any{"frames": frames, "count": len(frames)}, nil
}
