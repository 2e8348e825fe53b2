package session

import (
	"fmt"

	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// Position names where new pages are inserted.
type Position string

const (
	AtEnd         Position = "AT_END"
	AtBeginning   Position = "AT_BEGINNING"
	AfterCurrent  Position = "AFTER_CURRENT"
	BeforeCurrent Position = "BEFORE_CURRENT"
)

// Positions lists the accepted insertion positions.
var Positions = []Position{AtEnd, AtBeginning, AfterCurrent, BeforeCurrent}

// ParsePosition validates p. An empty value means AtEnd.
func ParsePosition(p string) (Position, error) {
	if p == "" {
		return AtEnd, nil
	}
	for _, known := range Positions {
		if Position(p) == known {
			return known, nil
		}
	}
	return "", toolresult.Validationf("position", "must be one of AT_END, AT_BEGINNING, AFTER_CURRENT, BEFORE_CURRENT, got %q", p)
}

// CheckPage validates a 0-based page index against the open document.
func (s *Session) CheckPage(index int) error {
	if err := s.RequireOpen(); err != nil {
		return err
	}
	if index < 0 || index >= s.PageCount {
		return toolresult.Validationf("pageIndex", "page %d out of range (document has %d pages)", index, s.PageCount)
	}
	return nil
}

// InsertionIndex resolves where count pages would be inserted for pos.
func (s *Session) InsertionIndex(pos Position) (int, error) {
	if err := s.RequireOpen(); err != nil {
		return 0, err
	}
	switch pos {
	case AtBeginning:
		return 0, nil
	case AfterCurrent:
		return s.CurrentPageIndex + 1, nil
	case BeforeCurrent:
		return s.CurrentPageIndex, nil
	case AtEnd:
		return s.PageCount, nil
	default:
		return 0, fmt.Errorf("unhandled position %q", pos)
	}
}

// InsertPages inserts count pages at index, shifting later frames and images.
// The current page keeps pointing at the same page.
func (s *Session) InsertPages(index, count int) error {
	if err := s.RequireOpen(); err != nil {
		return err
	}
	if index < 0 || index > s.PageCount {
		return toolresult.Validationf("position", "insertion index %d out of range", index)
	}
	if count < 1 {
		return toolresult.Validationf("count", "must be at least 1")
	}
	s.shiftPages(index, count)
	if s.CurrentPageIndex >= index && s.PageCount > 0 {
		s.CurrentPageIndex += count
	}
	s.PageCount += count
	return nil
}

// DeletePage removes the page at index together with its frames and images.
// The last remaining page cannot be deleted.
func (s *Session) DeletePage(index int) error {
	if err := s.CheckPage(index); err != nil {
		return err
	}
	if s.PageCount == 1 {
		return toolresult.Validationf("pageIndex", "cannot delete the only page of the document")
	}

	frames := s.Frames[:0]
	for _, f := range s.Frames {
		if f.PageIndex != index {
			frames = append(frames, f)
		}
	}
	s.Frames = frames

	images := s.Images[:0]
	for _, img := range s.Images {
		if img.PageIndex != index {
			images = append(images, img)
		}
	}
	s.Images = images

	s.shiftPages(index+1, -1)
	s.PageCount--
	if s.CurrentPageIndex > index || s.CurrentPageIndex >= s.PageCount {
		s.CurrentPageIndex--
	}
	if s.CurrentPageIndex < 0 {
		s.CurrentPageIndex = 0
	}
	return nil
}

// GoToPage makes index the current page.
func (s *Session) GoToPage(index int) error {
	if err := s.CheckPage(index); err != nil {
		return err
	}
	s.CurrentPageIndex = index
	return nil
}

// shiftPages moves every frame and image on a page >= from by delta pages.
func (s *Session) shiftPages(from, delta int) {
	for i := range s.Frames {
		if s.Frames[i].PageIndex >= from {
			s.Frames[i].PageIndex += delta
		}
	}
	for i := range s.Images {
		if s.Images[i].PageIndex >= from {
			s.Images[i].PageIndex += delta
		}
	}
}
