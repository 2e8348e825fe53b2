// Package ocr extracts text from placed images with Tesseract.
//
// Builds with cgo use gosseract and the system Tesseract installation; the
// language data is looked up in TESSDATA_PREFIX or Tesseract's default
// location. Builds without cgo compile a stub whose functions return
// ErrUnavailable, so the rest of the server works unchanged.
//
// # Prerequisites
//
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Each language needs its data package, for example tesseract-ocr-deu.
package ocr
