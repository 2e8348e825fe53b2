package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor is a colour with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor is hue in degrees, saturation and lightness in percent.
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// LabColor is CIE L*a*b* under D65, rounded to one decimal.
type LabColor struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// CMYKColor is a naive process approximation in percent. It ignores ink
// profiles; the host application converts properly when the swatch is used.
type CMYKColor struct {
	C int `json:"c"`
	M int `json:"m"`
	Y int `json:"y"`
	K int `json:"k"`
}

// ColorResult is one colour in every representation the tools report.
type ColorResult struct {
	Hex  string    `json:"hex"`
	RGB  RGBColor  `json:"rgb"`
	HSL  HSLColor  `json:"hsl"`
	Lab  LabColor  `json:"lab"`
	CMYK CMYKColor `json:"cmyk"`
}

// ParseHex parses "#RRGGBB", "RRGGBB" or the three digit short forms.
func ParseHex(hex string) (*ColorResult, error) {
	s := strings.TrimSpace(hex)
	if s == "" {
		return nil, fmt.Errorf("empty colour")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return nil, fmt.Errorf("invalid hex colour %q: want #RRGGBB or #RGB", hex)
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	res := Describe(c)
	return &res, nil
}

// Describe converts c into every reported representation.
func Describe(c colorful.Color) ColorResult {
	c = c.Clamped()
	r, g, b := c.RGB255()
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	lab, la, lb := c.Lab()
	cc, cm, cy, ck := color.RGBToCMYK(r, g, b)

	return ColorResult{
		Hex: strings.ToUpper(c.Hex()),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
		Lab: LabColor{
			L: round1(lab * 100),
			A: round1(la * 100),
			B: round1(lb * 100),
		},
		CMYK: CMYKColor{
			C: percent(cc),
			M: percent(cm),
			Y: percent(cy),
			K: percent(ck),
		},
	}
}

// AverageColor returns the mean colour of img using bild's box resampling
// down to a single pixel. Fully transparent images average to white.
func AverageColor(img image.Image) ColorResult {
	if img.Bounds().Empty() {
		return Describe(colorful.Color{R: 1, G: 1, B: 1})
	}
	px := transform.Resize(img, 1, 1, transform.Box).At(0, 0)
	c, ok := colorful.MakeColor(px)
	if !ok {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	return Describe(c)
}

// ColorFrequency is a quantized colour and its share of sampled pixels.
type ColorFrequency struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
}

// dominantSample bounds the thumbnail DominantColors scans.
const dominantSample = 64

// DominantColors returns up to count of the most common colours in img.
//
// The image is first reduced to a thumbnail, then every channel is quantized
// to steps of 16 so near-identical shades are grouped. Ties are broken by hex
// so the order is stable.
func DominantColors(img image.Image, count int) []ColorFrequency {
	if count <= 0 || img.Bounds().Empty() {
		return nil
	}
	thumb := imaging.Fit(img, dominantSample, dominantSample, imaging.Box)
	bounds := thumb.Bounds()

	counts := make(map[string]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := thumb.NRGBAAt(x, y)
			if px.A == 0 {
				continue
			}
			key := fmt.Sprintf("#%02X%02X%02X", px.R/16*16, px.G/16*16, px.B/16*16)
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for hex, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        hex,
			Percentage: round1(float64(n) / float64(total) * 100),
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// NRGBA converts a parsed colour for drawing.
func (c ColorResult) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.RGB.R, G: c.RGB.G, B: c.RGB.B, A: 255}
}

func percent(v uint8) int {
	return int(math.Round(float64(v) / 255 * 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
