//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Available reports whether OCR is compiled in.
func Available() bool { return true }

// ExtractText runs Tesseract over the image at path.
//
// gosseract cannot be interrupted once recognition starts, so ctx is only
// checked before the engine is set up.
func ExtractText(ctx context.Context, path, lang string, opts Options) (*Result, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if prefix := strings.TrimSpace(opts.TessdataPrefix); prefix != "" {
		if err := client.SetTessdataPrefix(prefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(languages(lang)...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{Text: compactText(text), Language: lang, Words: []Word{}}

	// Word boxes are best effort; the text alone is still useful.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		result.Words = append(result.Words, Word{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return result, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}
