package tools

import (
	"testing"

	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTextFrame(t *testing.T) {
	f := newFixture(t)
	f.openDocument(t)

	out := f.mustCall(t, "create_text_frame", map[string]any{
		"x": 20, "y": 30, "width": 170, "height": 40, "content": "Spring Sale",
	}).(FrameCreated)
	assert.Equal(t, 0, out.FrameIndex)
	assert.Equal(t, 0, out.PageIndex)
	assert.Len(t, out.ID, 26)
	assert.Equal(t, session.Bounds{X: 20, Y: 30, Width: 170, Height: 40}, out.Bounds)

	frame := f.sess.Frames[0]
	assert.Equal(t, session.FrameText, frame.Kind)
	assert.Equal(t, "Spring Sale", frame.Content)
	assert.Equal(t, session.DefaultParagraphStyle, frame.ParagraphStyle)

	cmd := f.host.Commands()[1]
	assert.Equal(t, "frame.createText", cmd.Action)
	assert.Equal(t, out.ID, cmd.Params["id"])
	assert.Equal(t, session.DefaultParagraphStyle, cmd.Params["paragraphStyle"])
}

func TestCreateTextFrameValidation(t *testing.T) {
	tests := []struct {
		name  string
		args  map[string]any
		field string
	}{
		{"missing x", map[string]any{"y": 0, "width": 10, "height": 10}, "x"},
		{"missing height", map[string]any{"x": 0, "y": 0, "width": 10}, "height"},
		{"zero width", map[string]any{"x": 0, "y": 0, "width": 0, "height": 10}, "width"},
		{"bad page", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10, "pageIndex": 2}, "pageIndex"},
		{"unknown style", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10, "paragraphStyle": "Headline"}, "paragraphStyle"},
		{"content not text", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10, "content": 5}, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.openDocument(t)
			_, err := f.call(t, "create_text_frame", tt.args)
			requireKind(t, err, toolresult.KindValidation)
			requireField(t, err, tt.field)
			assert.Empty(t, f.sess.Frames)
		})
	}
}

func TestCreateTextFrameWithCustomStyle(t *testing.T) {
	f := newFixture(t)
	f.openDocument(t)
	f.mustCall(t, "create_paragraph_style", map[string]any{"name": "Headline", "fontSize": 36})

	f.mustCall(t, "create_text_frame", map[string]any{
		"x": 0, "y": 0, "width": 100, "height": 20, "paragraphStyle": "Headline",
	})
	assert.Equal(t, "Headline", f.sess.Frames[0].ParagraphStyle)
}

func TestUpdateTextFrame(t *testing.T) {
	f := newFixture(t)
	f.openDocument(t)
	f.mustCall(t, "create_text_frame", map[string]any{"x": 0, "y": 0, "width": 100, "height": 20, "content": "Hello world"})

	change := f.mustCall(t, "update_text_frame", map[string]any{"frameIndex": 0, "content": "Hello brave world"}).(TextChange)
	assert.True(t, change.Changed)
	assert.Equal(t, 6, change.Insertions)
	assert.Equal(t, 0, change.Deletions)
	assert.Equal(t, 11, change.Unchanged)
	assert.Equal(t, f.sess.Frames[0].ID, change.ID)
	assert.Equal(t, "Hello brave world", f.sess.Frames[0].Content)

	change = f.mustCall(t, "update_text_frame", map[string]any{"frameIndex": 0, "content": "Hello brave world"}).(TextChange)
	assert.False(t, change.Changed)

	change = f.mustCall(t, "update_text_frame", map[string]any{"frameIndex": 0, "content": ""}).(TextChange)
	assert.Equal(t, 17, change.Deletions)
	assert.Equal(t, 0, change.Unchanged)
}

func TestUpdateTextFrameValidation(t *testing.T) {
	f := newFixture(t)
	f.openDocument(t)
	f.mustCall(t, "create_rectangle", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10})

	_, err := f.call(t, "update_text_frame", map[string]any{"content": "x"})
	requireField(t, err, "frameIndex")

	_, err = f.call(t, "update_text_frame", map[string]any{"frameIndex": 0})
	requireField(t, err, "content")

	_, err = f.call(t, "update_text_frame", map[string]any{"frameIndex": 0, "content": "x"})
	requireField(t, err, "frameIndex")
	assert.Contains(t, err.Error(), "not a text frame")

	_, err = f.call(t, "update_text_frame", map[string]any{"frameIndex": 7, "content": "x"})
	requireField(t, err, "frameIndex")
}

func TestUpdateTextFrameHostFailure(t *testing.T) {
	f := newFixture(t)
	f.openDocument(t)
	f.mustCall(t, "create_text_frame", map[string]any{"x": 0, "y": 0, "width": 100, "height": 20, "content": "before"})
	f.host.FailOn("frame.setText", "story is locked")

	_, err := f.call(t, "update_text_frame", map[string]any{"frameIndex": 0, "content": "after"})
	requireKind(t, err, toolresult.KindHostAutomation)
	assert.Equal(t, "before", f.sess.Frames[0].Content)
}

func TestDiffText(t *testing.T) {
	c := diffText("", "Grüße")
	assert.Equal(t, 5, c.Insertions)
	assert.True(t, c.Changed)

	c = diffText("same", "same")
	assert.Equal(t, TextChange{Unchanged: 4}, c)
}

func TestCreateRectangle(t *testing.T) {
	f := newFixture(t)
	f.openDocument(t)

	_, err := f.call(t, "create_rectangle", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10, "fillSwatch": "Brand Red"})
	requireField(t, err, "fillSwatch")

	f.mustCall(t, "create_color_swatch", map[string]any{"name": "Brand Red", "hex": "#C8102E"})
	out := f.mustCall(t, "create_rectangle", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10, "fillSwatch": "Brand Red"}).(FrameCreated)
	assert.Equal(t, 0, out.FrameIndex)
	assert.Equal(t, session.FrameRectangle, f.sess.Frames[0].Kind)
	assert.Equal(t, "Brand Red", f.sess.Frames[0].FillSwatch)

	f.mustCall(t, "create_rectangle", map[string]any{"x": 20, "y": 0, "width": 10, "height": 10})
	cmds := f.host.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, "frame.createRectangle", last.Action)
	assert.NotContains(t, last.Params, "fillSwatch")
}

func TestListFrames(t *testing.T) {
	f := newFixture(t)
	f.mustCall(t, "create_document", map[string]any{"width": 210, "height": 297, "pages": 2})

	out := f.mustCall(t, "list_frames", nil).(map[string]any)
	assert.Equal(t, 0, out["count"])
	assert.Equal(t, []IndexedFrame{}, out["frames"])

	f.mustCall(t, "create_text_frame", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10})
	f.mustCall(t, "create_rectangle", map[string]any{"x": 0, "y": 0, "width": 10, "height": 10, "pageIndex": 1})
	f.mustCall(t, "create_text_frame", map[string]any{"x": 0, "y": 20, "width": 10, "height": 10})

	out = f.mustCall(t, "list_frames", nil).(map[string]any)
	assert.Equal(t, 3, out["count"])

	out = f.mustCall(t, "list_frames", map[string]any{"pageIndex": 0}).(map[string]any)
	frames := out["frames"].([]IndexedFrame)
	require.Len(t, frames, 2)
	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, 2, frames[1].Index)

	_, err := f.call(t, "list_frames", map[string]any{"pageIndex": 5})
	requireField(t, err, "pageIndex")
}
