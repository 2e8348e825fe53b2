// Package session holds the server's record of the currently open document.
//
// A Session is created once per server and handed by reference to every tool
// handler. Requests are processed one at a time, so a Session is never observed
// by two handlers concurrently and carries no lock.
//
// # Lifecycle
//
//   - Init: New returns a session with no document open.
//   - Open: Open records the document geometry verbatim and marks it open.
//   - Query/Mutate: page, frame, style and image helpers extend the record;
//     none of them changes DocumentOpen.
//   - Reset: Reset returns to exactly the Init state.
//
// Every helper that depends on an open document calls RequireOpen first and
// returns toolresult.ErrNoDocument without touching any other field.
package session

import (
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// DefaultParagraphStyle is registered with every new document.
const DefaultParagraphStyle = "[Basic Paragraph]"

// Margins are the page margins in document units.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// DocumentSpec carries the arguments of a document creation.
type DocumentSpec struct {
	Name        string
	Width       float64
	Height      float64
	Units       string
	Pages       int
	Margins     Margins
	FacingPages bool
}

// Session is the mutable document record.
type Session struct {
	DocumentOpen     bool
	Name             string
	Width            float64
	Height           float64
	Units            string
	Margins          Margins
	FacingPages      bool
	PageCount        int
	CurrentPageIndex int
	FilePath         string

	Frames   []Frame
	Styles   []ParagraphStyle
	Swatches []Swatch
	Images   []PlacedImage
}

// New returns a session in the Init state.
func New() *Session {
	return &Session{}
}

// Reset restores the Init state. Nothing from the previous document survives.
func (s *Session) Reset() {
	*s = Session{}
}

// RequireOpen fails with toolresult.ErrNoDocument when no document is open.
func (s *Session) RequireOpen() error {
	if !s.DocumentOpen {
		return toolresult.ErrNoDocument
	}
	return nil
}

// Open marks a document as open and records spec verbatim. It fails when a
// document is already open.
func (s *Session) Open(spec DocumentSpec) error {
	if s.DocumentOpen {
		return toolresult.ErrDocumentOpen
	}
	*s = Session{
		DocumentOpen: true,
		Name:         spec.Name,
		Width:        spec.Width,
		Height:       spec.Height,
		Units:        spec.Units,
		Margins:      spec.Margins,
		FacingPages:  spec.FacingPages,
		PageCount:    spec.Pages,
		Styles: []ParagraphStyle{{
			Name:       DefaultParagraphStyle,
			FontFamily: "Minion Pro",
			FontSize:   12,
			Leading:    14.4,
		}},
	}
	return nil
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Frames = append([]Frame(nil), s.Frames...)
	cp.Styles = append([]ParagraphStyle(nil), s.Styles...)
	cp.Swatches = append([]Swatch(nil), s.Swatches...)
	cp.Images = append([]PlacedImage(nil), s.Images...)
	return cp
}
