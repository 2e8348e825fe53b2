package ocr

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnavailable is returned when the binary was built without OCR support.
var ErrUnavailable = errors.New("ocr unavailable in this build")

// DefaultLanguage is used when the caller names none.
const DefaultLanguage = "eng"

// Options tunes the OCR engine.
type Options struct {
	// TessdataPrefix is the directory holding the traineddata files. Empty
	// leaves Tesseract's own lookup in place.
	TessdataPrefix string
}

// Bounds is a pixel rectangle in the source image.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Word is one recognised word.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Result is the text found in an image.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Words    []Word `json:"words"`
}

// Tesseract language codes are lowercase letters with an optional script
// suffix ("chi_sim"); several are joined with '+'.
var languagePattern = regexp.MustCompile(`^[a-z]{3}(_[a-z]+)?(\+[a-z]{3}(_[a-z]+)?)*$`)

// NormalizeLanguage trims and validates a language code, defaulting to eng.
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return DefaultLanguage, nil
	}
	if !languagePattern.MatchString(lang) {
		return "", errors.New("language must be a Tesseract code such as eng or eng+deu")
	}
	return lang, nil
}

// languages splits a normalised "eng+deu" code.
func languages(lang string) []string {
	return strings.Split(lang, "+")
}

// compactText collapses runs of blank lines Tesseract emits between blocks.
func compactText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
