//go:build !cgo

package ocr

import "context"

// Available reports whether OCR is compiled in.
func Available() bool { return false }

// ExtractText always fails with ErrUnavailable in builds without cgo.
func ExtractText(_ context.Context, _ string, lang string, _ Options) (*Result, error) {
	if _, err := NormalizeLanguage(lang); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

// Version returns an empty string when OCR is not compiled in.
func Version() string { return "" }
