package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ironsheep/layout-tools-mcp/internal/ids"
	"github.com/ironsheep/layout-tools-mcp/internal/imaging"
	"github.com/ironsheep/layout-tools-mcp/internal/ocr"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/toolresult"
)

// maxPreviewScale bounds export_page_preview's pixels per point.
const maxPreviewScale = 8.0

var (
	textFill     = color.NRGBA{R: 0xE8, G: 0xF0, B: 0xFE, A: 0xFF}
	textOutline  = color.NRGBA{R: 0x1A, G: 0x73, B: 0xE8, A: 0xFF}
	rectOutline  = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
	imageOutline = color.NRGBA{R: 0xC0, G: 0x39, B: 0x2B, A: 0xFF}
)

func (t *toolset) imageTools() []toolDef {
	return []toolDef{
		{
			descriptor: registry.Descriptor{
				Name:        "place_image",
				Description: "Place an image file into a new graphic frame. Supports PNG, JPEG, GIF, TIFF and BMP.",
				InputSchema: object([]string{"filePath", "x", "y", "width", "height"}, geometryProps(map[string]any{
					"filePath": prop("string", "Path to the image file"),
					"fit":      enum("How the image is fitted to the frame; FRAME_TO_CONTENT shrinks the frame to the image's aspect", imaging.FitProportionally, imaging.FitModes...),
				})),
			},
			handle: t.placeImage,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "get_image_info",
				Description: "Describe a placed image: placement, pixel dimensions, format, effective PPI, average and dominant colour.",
				InputSchema: object([]string{"itemIndex"}, map[string]any{
					"itemIndex": prop("integer", "0-based index of the placed image"),
				}),
			},
			handle: t.getImageInfo,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "export_page_preview",
				Description: "Render a page to a PNG file showing margins, frames and placed images.",
				InputSchema: object([]string{"filePath"}, map[string]any{
					"filePath":  prop("string", "Destination .png path; missing directories are created"),
					"pageIndex": prop("integer", "0-based page index; defaults to the current page"),
					"scale":     propDefault("number", describe("Pixels per point (0-%g]", maxPreviewScale), t.previewScale),
				}),
			},
			handle: t.exportPagePreview,
		},
		{
			descriptor: registry.Descriptor{
				Name:        "get_image_text",
				Description: "Extract text from a placed image with OCR.",
				InputSchema: object([]string{"itemIndex"}, map[string]any{
					"itemIndex": prop("integer", "0-based index of the placed image"),
					"language":  propDefault("string", "Tesseract language code, e.g. eng or eng+deu", ocr.DefaultLanguage),
				}),
			},
			handle: t.getImageText,
		},
	}
}

type placeImageArgs struct {
	geometryArgs
	FilePath *string `json:"filePath"`
	Fit      string  `json:"fit"`
}

// ImagePlaced is the payload of place_image.
type ImagePlaced struct {
	ItemIndex   int            `json:"itemIndex"`
	FrameIndex  int            `json:"frameIndex"`
	ID          string         `json:"id"`
	PageIndex   int            `json:"pageIndex"`
	Bounds      session.Bounds `json:"bounds"`
	Fit         string         `json:"fit"`
	PixelWidth  int            `json:"pixelWidth"`
	PixelHeight int            `json:"pixelHeight"`
	Format      string         `json:"format"`
	PPI         PPI            `json:"effectivePpi"`
}

// PPI is the effective resolution of a placed image.
type PPI struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (t *toolset) placeImage(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args placeImageArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	path, err := imagePath(args.FilePath)
	if err != nil {
		return nil, err
	}
	bounds, err := args.bounds()
	if err != nil {
		return nil, err
	}
	fit, err := parseFit(args.Fit)
	if err != nil {
		return nil, err
	}
	page, err := pageOrCurrent(sess, args.PageIndex)
	if err != nil {
		return nil, err
	}
	// A file placed again may have changed on disk since it was cached.
	t.images.Evict(path)
	info, err := imaging.LoadImageInfo(t.images, path)
	if err != nil {
		return nil, toolresult.Validationf("filePath", "cannot read image %s: %v", path, err)
	}
	if fit == imaging.FitFrameToContent {
		bounds = contentBounds(bounds, info.Width, info.Height)
	}

	id := ids.New()
	if _, err := t.host(ctx, "image.place", map[string]any{
		"id":        id,
		"filePath":  path,
		"pageIndex": page,
		"bounds":    boundsParams(bounds),
		"fit":       fit,
	}); err != nil {
		return nil, err
	}
	placed := session.PlacedImage{
		FrameID:     id,
		FilePath:    path,
		PageIndex:   page,
		Bounds:      bounds,
		Fit:         fit,
		PixelWidth:  info.Width,
		PixelHeight: info.Height,
		Format:      info.Format,
	}
	index, err := sess.AddImage(placed)
	if err != nil {
		return nil, err
	}
	return ImagePlaced{
		ItemIndex:   index,
		FrameIndex:  len(sess.Frames) - 1,
		ID:          id,
		PageIndex:   page,
		Bounds:      bounds,
		Fit:         fit,
		PixelWidth:  info.Width,
		PixelHeight: info.Height,
		Format:      info.Format,
		PPI:         effectivePPI(placed, sess.Units),
	}, nil
}

// imagePath resolves an image argument to an existing regular file.
func imagePath(p *string) (string, error) {
	path, err := need("filePath", p)
	if err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", toolresult.Validationf("filePath", "must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", toolresult.Validationf("filePath", "cannot resolve %q: %v", path, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", toolresult.Validationf("filePath", "file not found: %s", abs)
	}
	if st.IsDir() {
		return "", toolresult.Validationf("filePath", "%s is a directory", abs)
	}
	return abs, nil
}

func parseFit(fit string) (string, error) {
	if fit == "" {
		return imaging.FitProportionally, nil
	}
	fit = strings.ToUpper(fit)
	if !slices.Contains(imaging.FitModes, fit) {
		return "", toolresult.Validationf("fit", "must be one of %s, got %q", strings.Join(imaging.FitModes, ", "), fit)
	}
	return fit, nil
}

// effectivePPI reports the resolution the image prints at once fitted.
func effectivePPI(img session.PlacedImage, units string) PPI {
	w, h := displayedSize(img, units)
	x, y := imaging.EffectivePPI(img.PixelWidth, img.PixelHeight, w, h)
	return PPI{X: math.Round(x*10) / 10, Y: math.Round(y*10) / 10}
}

// contentBounds shrinks b to the image fitted proportionally inside it. The
// top-left corner stays put.
func contentBounds(b session.Bounds, pixelWidth, pixelHeight int) session.Bounds {
	if pixelWidth <= 0 || pixelHeight <= 0 {
		return b
	}
	s := math.Min(b.Width/float64(pixelWidth), b.Height/float64(pixelHeight))
	b.Width = math.Round(float64(pixelWidth)*s*1000) / 1000
	b.Height = math.Round(float64(pixelHeight)*s*1000) / 1000
	return b
}

// displayedSize is the size in points the image is drawn at.
func displayedSize(img session.PlacedImage, units string) (float64, float64) {
	fw := toPoints(img.Bounds.Width, units)
	fh := toPoints(img.Bounds.Height, units)
	if img.PixelWidth <= 0 || img.PixelHeight <= 0 || img.Fit == imaging.FitContentToFrame {
		return fw, fh
	}
	sx := fw / float64(img.PixelWidth)
	sy := fh / float64(img.PixelHeight)
	s := math.Min(sx, sy)
	if img.Fit == imaging.FitFillProportionally {
		s = math.Max(sx, sy)
	}
	return float64(img.PixelWidth) * s, float64(img.PixelHeight) * s
}

type itemIndexArgs struct {
	ItemIndex *int `json:"itemIndex"`
}

// ImageDetails is the payload of get_image_info.
type ImageDetails struct {
	ItemIndex int `json:"itemIndex"`
	session.PlacedImage
	Units         string              `json:"units"`
	ColorDepth    string              `json:"colorDepth"`
	HasAlpha      bool                `json:"hasAlpha"`
	FileSizeBytes int64               `json:"fileSizeBytes"`
	PPI           PPI                 `json:"effectivePpi"`
	AverageColor  imaging.ColorResult `json:"averageColor"`
	DominantColor string              `json:"dominantColor,omitempty"`
}

func (t *toolset) getImageInfo(_ context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	placed, index, err := placedImage(raw, sess)
	if err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(t.images, placed.FilePath)
	if err != nil {
		return nil, toolresult.Validationf("itemIndex", "image file %s is no longer readable: %v", placed.FilePath, err)
	}
	img, err := t.images.Load(placed.FilePath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", placed.FilePath, err)
	}

	details := ImageDetails{
		ItemIndex:     index,
		PlacedImage:   placed,
		Units:         sess.Units,
		ColorDepth:    info.ColorDepth,
		HasAlpha:      info.HasAlpha,
		FileSizeBytes: info.FileSizeBytes,
		PPI:           effectivePPI(placed, sess.Units),
		AverageColor:  imaging.AverageColor(img),
	}
	if dominant := imaging.DominantColors(img, 1); len(dominant) > 0 {
		details.DominantColor = dominant[0].Hex
	}
	return details, nil
}

func placedImage(raw json.RawMessage, sess *session.Session) (session.PlacedImage, int, error) {
	var args itemIndexArgs
	if err := decode(raw, &args); err != nil {
		return session.PlacedImage{}, 0, err
	}
	index, err := need("itemIndex", args.ItemIndex)
	if err != nil {
		return session.PlacedImage{}, 0, err
	}
	img, err := sess.Image(index)
	if err != nil {
		return session.PlacedImage{}, 0, err
	}
	return img, index, nil
}

type exportPreviewArgs struct {
	FilePath  *string  `json:"filePath"`
	PageIndex *int     `json:"pageIndex"`
	Scale     *float64 `json:"scale"`
}

// PreviewExported is the payload of export_page_preview.
type PreviewExported struct {
	FilePath  string  `json:"filePath"`
	PageIndex int     `json:"pageIndex"`
	Scale     float64 `json:"scale"`
	Width     int     `json:"widthPx"`
	Height    int     `json:"heightPx"`
	Frames    int     `json:"frames"`
}

func (t *toolset) exportPagePreview(_ context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args exportPreviewArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	path, err := need("filePath", args.FilePath)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return nil, toolresult.Validationf("filePath", "must end in .png")
	}
	if path, err = filepath.Abs(path); err != nil {
		return nil, toolresult.Validationf("filePath", "%v", err)
	}
	page, err := pageOrCurrent(sess, args.PageIndex)
	if err != nil {
		return nil, err
	}
	scale := t.previewScale
	if args.Scale != nil {
		scale = *args.Scale
	}
	if scale <= 0 || scale > maxPreviewScale {
		return nil, toolresult.Validationf("scale", "must be greater than 0 and at most %g, got %g", maxPreviewScale, scale)
	}
	pxPerUnit := scale * toPoints(1, sess.Units)
	if max(sess.Width, sess.Height)*pxPerUnit > imaging.MaxPreviewPixels {
		return nil, toolresult.Validationf("scale", "preview would exceed %d pixels; use a smaller scale", imaging.MaxPreviewPixels)
	}

	layout := pageLayout(sess, page)
	img, err := imaging.RenderPage(layout, pxPerUnit, t.images)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	if err := imaging.SavePNG(img, path); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return PreviewExported{
		FilePath:  path,
		PageIndex: page,
		Scale:     scale,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Frames:    len(layout.Boxes),
	}, nil
}

// pageLayout converts the frames on page into preview boxes, in creation
// order so later frames draw on top.
func pageLayout(sess *session.Session, page int) imaging.PageLayout {
	m := sess.Margins
	layout := imaging.PageLayout{
		Width:   sess.Width,
		Height:  sess.Height,
		Margins: imaging.Insets{Top: m.Top, Bottom: m.Bottom, Left: m.Left, Right: m.Right},
	}
	for _, i := range sess.FrameIndexes(page) {
		f := sess.Frames[i]
		box := imaging.Box{Rect: imaging.Rect{X: f.Bounds.X, Y: f.Bounds.Y, Width: f.Bounds.Width, Height: f.Bounds.Height}}
		switch f.Kind {
		case session.FrameText:
			fill := textFill
			box.Fill = &fill
			box.Outline = textOutline
		case session.FrameRectangle:
			if sw, ok := sess.Swatch(f.FillSwatch); ok {
				fill := color.NRGBA{R: sw.R, G: sw.G, B: sw.B, A: 0xFF}
				box.Fill = &fill
			}
			box.Outline = rectOutline
		case session.FrameImage:
			for _, img := range sess.Images {
				if img.FrameID == f.ID {
					box.ImagePath = img.FilePath
					box.Fit = img.Fit
					break
				}
			}
			box.Outline = imageOutline
		}
		layout.Boxes = append(layout.Boxes, box)
	}
	return layout
}

type imageTextArgs struct {
	itemIndexArgs
	Language string `json:"language"`
}

func (t *toolset) getImageText(ctx context.Context, raw json.RawMessage, sess *session.Session) (any, error) {
	if err := sess.RequireOpen(); err != nil {
		return nil, err
	}
	var args imageTextArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	lang, err := ocr.NormalizeLanguage(args.Language)
	if err != nil {
		return nil, toolresult.Validationf("language", "%v", err)
	}
	index, err := need("itemIndex", args.ItemIndex)
	if err != nil {
		return nil, err
	}
	placed, err := sess.Image(index)
	if err != nil {
		return nil, err
	}

	res, err := t.ocr(ctx, placed.FilePath, lang)
	if errors.Is(err, ocr.ErrUnavailable) {
		return nil, &toolresult.ValidationError{Message: ocr.ErrUnavailable.Error()}
	}
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", placed.FilePath, err)
	}
	return map[string]any{
		"itemIndex": index,
		"filePath":  placed.FilePath,
		"language":  res.Language,
		"text":      res.Text,
		"words":     res.Words,
	}, nil
}
