package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		hex  string
		rgb  RGBColor
		hsl  HSLColor
		cmyk CMYKColor
	}{
		{"#FF0000", "#FF0000", RGBColor{255, 0, 0}, HSLColor{0, 100, 50}, CMYKColor{0, 100, 100, 0}},
		{"00ff00", "#00FF00", RGBColor{0, 255, 0}, HSLColor{120, 100, 50}, CMYKColor{100, 0, 100, 0}},
		{"#00f", "#0000FF", RGBColor{0, 0, 255}, HSLColor{240, 100, 50}, CMYKColor{100, 100, 0, 0}},
		{" #ffffff ", "#FFFFFF", RGBColor{255, 255, 255}, HSLColor{0, 0, 100}, CMYKColor{0, 0, 0, 0}},
		{"#000000", "#000000", RGBColor{0, 0, 0}, HSLColor{0, 0, 0}, CMYKColor{0, 0, 0, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.hex, got.Hex)
			assert.Equal(t, tt.rgb, got.RGB)
			assert.Equal(t, tt.hsl, got.HSL)
			assert.Equal(t, tt.cmyk, got.CMYK)
		})
	}
}

func TestParseHex_Lab(t *testing.T) {
	white, err := ParseHex("#FFFFFF")
	require.NoError(t, err)
	assert.InDelta(t, 100, white.Lab.L, 0.5)
	assert.InDelta(t, 0, white.Lab.A, 0.5)

	red, err := ParseHex("#FF0000")
	require.NoError(t, err)
	assert.InDelta(t, 53.2, red.Lab.L, 1)
	assert.Greater(t, red.Lab.A, 50.0)
}

func TestParseHex_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#1234567", "#GGGGGG", "red"} {
		_, err := ParseHex(in)
		assert.Error(t, err, in)
	}
}

func TestAverageColor(t *testing.T) {
	got := AverageColor(solid(10, 10, color.RGBA{0, 128, 255, 255}))
	assert.InDelta(t, 0, int(got.RGB.R), 1)
	assert.InDelta(t, 128, int(got.RGB.G), 1)
	assert.InDelta(t, 255, int(got.RGB.B), 1)

	// Half black, half white averages to mid grey.
	img := solid(10, 10, color.White)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, color.Black)
		}
	}
	avg := AverageColor(img)
	assert.InDelta(t, 127, int(avg.RGB.R), 10)
	assert.Equal(t, avg.RGB.R, avg.RGB.B)
}

func TestAverageColor_Transparent(t *testing.T) {
	got := AverageColor(image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	assert.Equal(t, "#FFFFFF", got.Hex)
}

func TestDominantColors(t *testing.T) {
	img := solid(100, 100, color.RGBA{255, 0, 0, 255})
	for y := 0; y < 100; y++ {
		for x := 75; x < 100; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	got := DominantColors(img, 5)

	require.NotEmpty(t, got)
	assert.Equal(t, "#F00000", got[0].Hex)
	assert.Greater(t, got[0].Percentage, 60.0)
	assert.LessOrEqual(t, len(got), 5)
}

func TestDominantColors_Edges(t *testing.T) {
	assert.Nil(t, DominantColors(solid(4, 4, color.White), 0))
	assert.Nil(t, DominantColors(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 3))

	one := DominantColors(solid(4, 4, color.White), 3)
	require.Len(t, one, 1)
	assert.Equal(t, "#F0F0F0", one[0].Hex)
	assert.Equal(t, 100.0, one[0].Percentage)
}
