// Package imaging probes, analyses and renders the images the layout tools
// work with.
//
// It covers three concerns:
//   - ImageCache and LoadImageInfo decode placed image files once and report
//     their pixel geometry, format and file size.
//   - ParseHex, Describe, AverageColor and DominantColors turn swatch input and
//     image content into the colour representations the tools report.
//   - RenderPage and SavePNG rasterise a page layout into a PNG preview.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner. Page
// layouts are expressed in document units and converted with a single
// pixels-per-unit scale when rendered.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless.
package imaging
