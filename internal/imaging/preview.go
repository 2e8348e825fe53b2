package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// MaxPreviewPixels bounds the longer edge of a rendered preview.
const MaxPreviewPixels = 8192

// Fit modes understood by the renderer. They mirror the host's image fitting
// options.
const (
	FitProportionally     = "PROPORTIONALLY"
	FitFillProportionally = "FILL_PROPORTIONALLY"
	FitFrameToContent     = "FRAME_TO_CONTENT"
	FitContentToFrame     = "CONTENT_TO_FRAME"
)

// FitModes lists the accepted fit modes.
var FitModes = []string{FitProportionally, FitFillProportionally, FitFrameToContent, FitContentToFrame}

// Rect is an axis-aligned box in page units.
type Rect struct {
	X, Y, Width, Height float64
}

// Box is one item drawn on a preview.
type Box struct {
	Rect
	// Fill is drawn under the outline; nil leaves the page showing through.
	Fill    *color.NRGBA
	Outline color.NRGBA
	// ImagePath, when set, is composited into the box using Fit.
	ImagePath string
	Fit       string
}

// Insets are page margins.
type Insets struct {
	Top, Bottom, Left, Right float64
}

// PageLayout is a page and its items, all in the same unit.
type PageLayout struct {
	Width, Height float64
	Margins       Insets
	Boxes         []Box
}

var (
	marginColor = color.NRGBA{R: 0xD0, G: 0x4C, B: 0xD0, A: 0xFF}
	pageColor   = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// RenderPage rasterises layout at scale pixels per unit. Images referenced by
// boxes are loaded through cache.
func RenderPage(layout PageLayout, scale float64, cache *ImageCache) (*image.NRGBA, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", scale)
	}
	w := int(math.Round(layout.Width * scale))
	h := int(math.Round(layout.Height * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("page renders to an empty %dx%d image", w, h)
	}
	if w > MaxPreviewPixels || h > MaxPreviewPixels {
		return nil, fmt.Errorf("preview of %dx%d pixels exceeds the %d pixel limit", w, h, MaxPreviewPixels)
	}

	canvas := imaging.New(w, h, pageColor)

	m := layout.Margins
	strokeRect(canvas, scaleRect(Rect{
		X:      m.Left,
		Y:      m.Top,
		Width:  layout.Width - m.Left - m.Right,
		Height: layout.Height - m.Top - m.Bottom,
	}, scale), marginColor)

	for i, b := range layout.Boxes {
		r := scaleRect(b.Rect, scale)
		if b.Fill != nil {
			draw.Draw(canvas, r, &image.Uniform{C: *b.Fill}, image.Point{}, draw.Over)
		}
		if b.ImagePath != "" && !r.Empty() {
			src, err := cache.Load(b.ImagePath)
			if err != nil {
				return nil, fmt.Errorf("box %d: %w", i, err)
			}
			canvas = composite(canvas, src, r, b.Fit)
		}
		strokeRect(canvas, r, b.Outline)
	}
	return canvas, nil
}

// composite draws src into r of dst according to fit. The result is clipped to
// r; parts of a placed image outside its frame are never visible.
func composite(dst *image.NRGBA, src image.Image, r image.Rectangle, fit string) *image.NRGBA {
	sb := src.Bounds()
	var fitted image.Image
	switch fit {
	case FitContentToFrame:
		fitted = transform.Resize(src, r.Dx(), r.Dy(), transform.Linear)
	case FitFillProportionally:
		fitted = imaging.Fill(src, r.Dx(), r.Dy(), imaging.Center, imaging.Lanczos)
	default:
		// FRAME_TO_CONTENT frames already have the image's aspect, so the
		// proportional fit fills them.
		ratio := math.Min(float64(r.Dx())/float64(sb.Dx()), float64(r.Dy())/float64(sb.Dy()))
		fw := max(1, int(math.Round(float64(sb.Dx())*ratio)))
		fh := max(1, int(math.Round(float64(sb.Dy())*ratio)))
		fitted = transform.Resize(src, fw, fh, transform.Linear)
	}

	fb := fitted.Bounds()
	offset := image.Pt(r.Min.X+(r.Dx()-fb.Dx())/2, r.Min.Y+(r.Dy()-fb.Dy())/2)
	clip := imaging.Crop(fitted, image.Rect(0, 0, r.Dx(), r.Dy()))
	return imaging.Overlay(dst, clip, offset, 1.0)
}

// SavePNG writes img to path, creating the parent directory.
func SavePNG(img image.Image, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return errors.New("preview path must end in .png")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

func scaleRect(r Rect, scale float64) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*scale)),
		int(math.Round(r.Y*scale)),
		int(math.Round((r.X+r.Width)*scale)),
		int(math.Round((r.Y+r.Height)*scale)),
	)
}

func strokeRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() || c.A == 0 {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}
