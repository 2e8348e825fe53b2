package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

func openA4(t *testing.T, pages int) *Session {
	t.Helper()
	s := New()
	require.NoError(t, s.Open(DocumentSpec{Width: 210, Height: 297, Units: "mm", Pages: pages}))
	return s
}

func TestNewSessionHasNoDocument(t *testing.T) {
	s := New()

	assert.False(t, s.DocumentOpen)
	assert.ErrorIs(t, s.RequireOpen(), toolresult.ErrNoDocument)
	assert.Zero(t, s.PageCount)
}

func TestOpenRecordsGeometry(t *testing.T) {
	s := New()
	spec := DocumentSpec{
		Name:    "brochure",
		Width:   210,
		Height:  297,
		Units:   "mm",
		Pages:   4,
		Margins: Margins{Top: 12.7, Bottom: 12.7, Left: 10, Right: 10},
	}

	require.NoError(t, s.Open(spec))

	assert.True(t, s.DocumentOpen)
	assert.Equal(t, 210.0, s.Width)
	assert.Equal(t, 297.0, s.Height)
	assert.Equal(t, 4, s.PageCount)
	assert.Equal(t, spec.Margins, s.Margins)
	_, ok := s.Style(DefaultParagraphStyle)
	assert.True(t, ok, "default paragraph style should exist")
}

func TestOpenTwiceFails(t *testing.T) {
	s := openA4(t, 1)
	before := s.Snapshot()

	err := s.Open(DocumentSpec{Width: 100, Height: 100, Pages: 1})

	assert.ErrorIs(t, err, toolresult.ErrDocumentOpen)
	assert.Equal(t, before, s.Snapshot())
}

func TestResetReturnsToInitState(t *testing.T) {
	s := openA4(t, 2)
	_, err := s.AddFrame(Frame{ID: "f1", Kind: FrameText, PageIndex: 1})
	require.NoError(t, err)
	require.NoError(t, s.AddSwatch(Swatch{Name: "Brand"}))

	s.Reset()

	assert.Equal(t, *New(), *s)
	assert.ErrorIs(t, s.RequireOpen(), toolresult.ErrNoDocument)
}

func TestStateDependentHelpersFailWithoutDocument(t *testing.T) {
	s := New()

	checks := map[string]error{
		"CheckPage":   s.CheckPage(0),
		"GoToPage":    s.GoToPage(0),
		"InsertPages": s.InsertPages(0, 1),
		"DeletePage":  s.DeletePage(0),
		"AddStyle":    s.AddStyle(ParagraphStyle{Name: "Body"}),
		"AddSwatch":   s.AddSwatch(Swatch{Name: "Red"}),
	}
	_, frameErr := s.Frame(0)
	checks["Frame"] = frameErr
	_, imageErr := s.Image(0)
	checks["Image"] = imageErr
	_, addErr := s.AddFrame(Frame{})
	checks["AddFrame"] = addErr

	for name, err := range checks {
		assert.ErrorIs(t, err, toolresult.ErrNoDocument, name)
	}
	assert.Equal(t, *New(), *s)
}

func TestInsertPages(t *testing.T) {
	tests := []struct {
		name        string
		current     int
		pos         Position
		wantIndex   int
		wantCurrent int
	}{
		{"at end", 0, AtEnd, 2, 0},
		{"at beginning", 1, AtBeginning, 0, 2},
		{"after current", 0, AfterCurrent, 1, 0},
		{"before current", 1, BeforeCurrent, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openA4(t, 2)
			s.CurrentPageIndex = tt.current

			idx, err := s.InsertionIndex(tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, idx)

			require.NoError(t, s.InsertPages(idx, 1))
			assert.Equal(t, 3, s.PageCount)
			assert.Equal(t, tt.wantCurrent, s.CurrentPageIndex)
		})
	}
}

func TestInsertPagesShiftsItems(t *testing.T) {
	s := openA4(t, 2)
	_, err := s.AddFrame(Frame{ID: "a", PageIndex: 0})
	require.NoError(t, err)
	_, err = s.AddImage(PlacedImage{FrameID: "b", PageIndex: 1})
	require.NoError(t, err)

	require.NoError(t, s.InsertPages(1, 2))

	assert.Equal(t, 0, s.Frames[0].PageIndex)
	assert.Equal(t, 3, s.Frames[1].PageIndex)
	assert.Equal(t, 3, s.Images[0].PageIndex)
}

func TestDeletePage(t *testing.T) {
	s := openA4(t, 3)
	_, err := s.AddFrame(Frame{ID: "keep", PageIndex: 0})
	require.NoError(t, err)
	_, err = s.AddFrame(Frame{ID: "drop", PageIndex: 1})
	require.NoError(t, err)
	_, err = s.AddImage(PlacedImage{FrameID: "moved", PageIndex: 2})
	require.NoError(t, err)
	require.NoError(t, s.GoToPage(2))

	require.NoError(t, s.DeletePage(1))

	assert.Equal(t, 2, s.PageCount)
	assert.Equal(t, 1, s.CurrentPageIndex)
	require.Len(t, s.Frames, 2)
	assert.Equal(t, "keep", s.Frames[0].ID)
	assert.Equal(t, "moved", s.Frames[1].ID)
	assert.Equal(t, 1, s.Frames[1].PageIndex)
	assert.Equal(t, 1, s.Images[0].PageIndex)
}

func TestDeleteOnlyPageFails(t *testing.T) {
	s := openA4(t, 1)

	err := s.DeletePage(0)

	assert.Equal(t, toolresult.KindValidation, toolresult.KindOf(err))
	assert.Equal(t, 1, s.PageCount)
}

func TestGoToPageBounds(t *testing.T) {
	s := openA4(t, 2)

	assert.NoError(t, s.GoToPage(1))
	assert.Equal(t, 1, s.CurrentPageIndex)
	assert.Error(t, s.GoToPage(2))
	assert.Error(t, s.GoToPage(-1))
	assert.Equal(t, 1, s.CurrentPageIndex)
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("")
	require.NoError(t, err)
	assert.Equal(t, AtEnd, p)

	p, err = ParsePosition("AFTER_CURRENT")
	require.NoError(t, err)
	assert.Equal(t, AfterCurrent, p)

	_, err = ParsePosition("SIDEWAYS")
	assert.Equal(t, toolresult.KindValidation, toolresult.KindOf(err))
}

func TestStylesAndSwatchesAreUnique(t *testing.T) {
	s := openA4(t, 1)

	require.NoError(t, s.AddStyle(ParagraphStyle{Name: "Body"}))
	assert.Error(t, s.AddStyle(ParagraphStyle{Name: "Body"}))
	require.NoError(t, s.AddSwatch(Swatch{Name: "Brand"}))
	assert.Error(t, s.AddSwatch(Swatch{Name: "Brand"}))

	assert.Len(t, s.Styles, 2)
	assert.Len(t, s.Swatches, 1)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := openA4(t, 1)
	_, err := s.AddFrame(Frame{ID: "a", Content: "hello"})
	require.NoError(t, err)

	snap := s.Snapshot()
	f, err := s.Frame(0)
	require.NoError(t, err)
	f.Content = "changed"

	assert.Equal(t, "hello", snap.Frames[0].Content)
}
