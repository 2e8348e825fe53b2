package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

func (t *toolset) pageTools() []toolDef {
	positions := make([]string, len(session.Positions))
	for i, p := range session.Positions {
		positions[i] = string(p)
	}
	return []toolDef{
		{
			descriptor: registry.Descriptor{
				Name:        "add_page",
				Description: "Insert pages into the open document.",
				InputSchema: object(nil, map[string]any{
					"position": enum("Where the new pages go, relative to the document or the current page", string(session.AtEnd), positions...),
					"count":    propDefault("integer", "Number of pages to insert", 1),
				}),
			},
			handle: t.addPage,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "delete_page",
				Description: "Delete a page and every item on it. The last remaining page cannot be deleted.",
				InputSchema: object([]string{"pageIndex"}, map[string]any{
					"pageIndex": prop("integer", "0-based page index"),
				}),
			},
			handle: t.deletePage,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "navigate_to_page",
				Description: "Make a page the current page. New items default to the current page.",
				InputSchema: object([]string{"pageIndex"}, map[string]any{
					"pageIndex": prop("integer", "0-based page index"),
				}),
			},
			handle: t.navigateToPage,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "get_page_info",
				Description: "Describe a page and list the items on it.",
				InputSchema: object(nil, map[string]any{
					"pageIndex": prop("integer", "0-based page index; defaults to the current page"),
				}),
			},
			handle: t.getPageInfo,
		},
	}
}

type addPageArgs struct {
	Position string `json:"position"`
	Count    *int   `json:"count"`
}

func (t *toolset) addPage(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args addPageArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	pos, err := session.ParsePosition(args.Position)
	if err != nil {
		return nil, err
	}
	count := 1
	if args.Count != nil {
		count = *args.Count
	}
	if sess.PageCount >= maxPages {
		return nil, &toolresult.StateError{Message: fmt.Sprintf("document already has the maximum of %d pages", maxPages)}
	}
	if count < 1 || sess.PageCount+count > maxPages {
		return nil, toolresult.Validationf("count", "must be between 1 and %d, got %d", maxPages-sess.PageCount, count)
	}
	index, err := sess.InsertionIndex(pos)
	if err != nil {
		return nil, err
	}

	if _, err := t.host(ctx, "page.add", map[string]any{
		"position": string(pos),
		"count":    count,
		"index":    index,
	}); err != nil {
		return nil, err
	}
	if err := sess.InsertPages(index, count); err != nil {
		return nil, err
	}
	return map[string]any{
		"insertedAt":       index,
		"count":            count,
		"pageCount":        sess.PageCount,
		"currentPageIndex": sess.CurrentPageIndex,
	}, nil
}

type pageIndexArgs struct {
	PageIndex *int `json:"pageIndex"`
}

func (t *toolset) deletePage(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args pageIndexArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	index, err := need("pageIndex", args.PageIndex)
	if err != nil {
		return nil, err
	}
	if err := sess.CheckPage(index); err != nil {
		return nil, err
	}
	if sess.PageCount == 1 {
		return nil, toolresult.Validationf("pageIndex", "cannot delete the only page of the document")
	}
	removed := len(sess.FrameIndexes(index))

	if _, err := t.host(ctx, "page.delete", map[string]any{"pageIndex": index}); err != nil {
		return nil, err
	}
	if err := sess.DeletePage(index); err != nil {
		return nil, err
	}
	return map[string]any{
		"deleted":          index,
		"framesRemoved":    removed,
		"pageCount":        sess.PageCount,
		"currentPageIndex": sess.CurrentPageIndex,
	}, nil
}

func (t *toolset) navigateToPage(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args pageIndexArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	index, err := need("pageIndex", args.PageIndex)
	if err != nil {
		return nil, err
	}
	if err := sess.CheckPage(index); err != nil {
		return nil, err
	}

	if _, err := t.host(ctx, "page.navigate", map[string]any{"pageIndex": index}); err != nil {
		return nil, err
	}
	if err := sess.GoToPage(index); err != nil {
		return nil, err
	}
	return map[string]any{"currentPageIndex": sess.CurrentPageIndex, "pageCount": sess.PageCount}, nil
}

// IndexedFrame is a frame together with its session index.
type IndexedFrame struct {
	Index int `json:"index"`
	session.Frame
}

// PageInfo is the payload of get_page_info.
type PageInfo struct {
	PageIndex int             `json:"pageIndex"`
	IsCurrent bool            `json:"isCurrent"`
	Side      string          `json:"side"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Units     string          `json:"units"`
	Margins   session.Margins `json:"margins"`
	Frames    []IndexedFrame  `json:"frames"`
}

func (t *toolset) getPageInfo(_ context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args pageIndexArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	index, err := pageOrCurrent(sess, args.PageIndex)
	if err != nil {
		return nil, err
	}
	return PageInfo{
		PageIndex: index,
		IsCurrent: index == sess.CurrentPageIndex,
		Side:      pageSide(sess.FacingPages, index),
		Width:     sess.Width,
		Height:    sess.Height,
		Units:     sess.Units,
		Margins:   sess.Margins,
		Frames:    framesOn(sess, &index),
	}, nil
}

// pageSide names the spread side of a page. In a facing-pages document the
// first page is a right-hand page.
func pageSide(facing bool, index int) string {
	switch {
	case !facing:
		return "single"
	case index%2 == 0:
		return "right"
	default:
		return "left"
	}
}

// framesOn lists the frames on page, or every frame when page is nil.
func framesOn(sess *session.Session, page *int) []IndexedFrame {
	out := []IndexedFrame{}
	for i, f := range sess.Frames {
		if page != nil && f.PageIndex != *page {
			continue
		}
		out = append(out, IndexedFrame{Index: i, Frame: f})
	}
	return out
}
