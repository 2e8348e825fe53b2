package session

import (
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// FrameKind distinguishes the page items a session tracks.
type FrameKind string

const (
	FrameText      FrameKind = "text"
	FrameRectangle FrameKind = "rectangle"
	FrameImage     FrameKind = "image"
)

// Bounds is an item's geometry in document units, origin at the page's top-left.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame is a page item.
type Frame struct {
	ID             string    `json:"id"`
	Kind           FrameKind `json:"kind"`
	PageIndex      int       `json:"pageIndex"`
	Bounds         Bounds    `json:"bounds"`
	Content        string    `json:"content,omitempty"`
	ParagraphStyle string    `json:"paragraphStyle,omitempty"`
	FillSwatch     string    `json:"fillSwatch,omitempty"`
}

// ParagraphStyle is a named paragraph style.
type ParagraphStyle struct {
	Name        string  `json:"name"`
	FontFamily  string  `json:"fontFamily"`
	FontSize    float64 `json:"fontSize"`
	Leading     float64 `json:"leading"`
	ColorSwatch string  `json:"colorSwatch,omitempty"`
}

// Swatch is a named process colour.
type Swatch struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
	R    uint8  `json:"r"`
	G    uint8  `json:"g"`
	B    uint8  `json:"b"`
}

// PlacedImage is an image placed into a graphic frame.
type PlacedImage struct {
	FrameID     string `json:"frameId"`
	FilePath    string `json:"filePath"`
	PageIndex   int    `json:"pageIndex"`
	Bounds      Bounds `json:"bounds"`
	Fit         string `json:"fit"`
	PixelWidth  int    `json:"pixelWidth"`
	PixelHeight int    `json:"pixelHeight"`
	Format      string `json:"format"`
}

// AddFrame appends f and returns its index.
func (s *Session) AddFrame(f Frame) (int, error) {
	if err := s.CheckPage(f.PageIndex); err != nil {
		return 0, err
	}
	s.Frames = append(s.Frames, f)
	return len(s.Frames) - 1, nil
}

// Frame returns a pointer to the frame at index for in-place updates.
func (s *Session) Frame(index int) (*Frame, error) {
	if err := s.RequireOpen(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.Frames) {
		return nil, toolresult.Validationf("frameIndex", "frame %d does not exist (document has %d frames)", index, len(s.Frames))
	}
	return &s.Frames[index], nil
}

// FrameIndexes returns the indexes of the frames on page, in creation order.
func (s *Session) FrameIndexes(page int) []int {
	var out []int
	for i, f := range s.Frames {
		if f.PageIndex == page {
			out = append(out, i)
		}
	}
	return out
}

// AddStyle registers a paragraph style; names are unique.
func (s *Session) AddStyle(style ParagraphStyle) error {
	if err := s.RequireOpen(); err != nil {
		return err
	}
	if _, ok := s.Style(style.Name); ok {
		return toolresult.Validationf("name", "paragraph style %q already exists", style.Name)
	}
	s.Styles = append(s.Styles, style)
	return nil
}

// Style looks up a paragraph style by name.
func (s *Session) Style(name string) (ParagraphStyle, bool) {
	for _, st := range s.Styles {
		if st.Name == name {
			return st, true
		}
	}
	return ParagraphStyle{}, false
}

// AddSwatch registers a colour swatch; names are unique.
func (s *Session) AddSwatch(sw Swatch) error {
	if err := s.RequireOpen(); err != nil {
		return err
	}
	if _, ok := s.Swatch(sw.Name); ok {
		return toolresult.Validationf("name", "swatch %q already exists", sw.Name)
	}
	s.Swatches = append(s.Swatches, sw)
	return nil
}

// Swatch looks up a colour swatch by name.
func (s *Session) Swatch(name string) (Swatch, bool) {
	for _, sw := range s.Swatches {
		if sw.Name == name {
			return sw, true
		}
	}
	return Swatch{}, false
}

// AddImage records a placed image together with its graphic frame and returns
// the image's item index.
func (s *Session) AddImage(img PlacedImage) (int, error) {
	if _, err := s.AddFrame(Frame{
		ID:        img.FrameID,
		Kind:      FrameImage,
		PageIndex: img.PageIndex,
		Bounds:    img.Bounds,
	}); err != nil {
		return 0, err
	}
	s.Images = append(s.Images, img)
	return len(s.Images) - 1, nil
}

// Image returns the placed image at index.
func (s *Session) Image(index int) (PlacedImage, error) {
	if err := s.RequireOpen(); err != nil {
		return PlacedImage{}, err
	}
	if index < 0 || index >= len(s.Images) {
		return PlacedImage{}, toolresult.Validationf("itemIndex", "image %d does not exist (document has %d placed images)", index, len(s.Images))
	}
	return s.Images[index], nil
}
