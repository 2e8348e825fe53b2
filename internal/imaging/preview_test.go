package imaging

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPage_Geometry(t *testing.T) {
	fill := color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	layout := PageLayout{
		Width:   100,
		Height:  50,
		Margins: Insets{Top: 5, Bottom: 5, Left: 5, Right: 5},
		Boxes: []Box{{
			Rect:    Rect{X: 10, Y: 10, Width: 20, Height: 10},
			Fill:    &fill,
			Outline: color.NRGBA{A: 255},
		}},
	}

	img, err := RenderPage(layout, 2, NewImageCache())

	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
	assert.Equal(t, pageColor, img.NRGBAAt(1, 1), "outside the margins stays white")
	assert.Equal(t, marginColor, img.NRGBAAt(10, 50), "left margin guide")
	assert.Equal(t, fill, img.NRGBAAt(40, 30), "inside the filled box")
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(20, 30), "box outline")
}

func TestRenderPage_Images(t *testing.T) {
	src := writeSolidPNG(t, "green.png", 40, 20, color.RGBA{0, 255, 0, 255})
	cache := NewImageCache()

	for _, fit := range FitModes {
		t.Run(fit, func(t *testing.T) {
			layout := PageLayout{
				Width:  60,
				Height: 60,
				Boxes:  []Box{{Rect: Rect{X: 10, Y: 10, Width: 40, Height: 40}, ImagePath: src, Fit: fit}},
			}

			img, err := RenderPage(layout, 1, cache)

			require.NoError(t, err)
			center := img.NRGBAAt(30, 30)
			assert.Equal(t, uint8(255), center.G, "image covers the frame centre")
			assert.Equal(t, pageColor, img.NRGBAAt(5, 5), "image never leaks outside its frame")
		})
	}
}

func TestRenderPage_ProportionalLetterbox(t *testing.T) {
	src := writeSolidPNG(t, "wide.png", 40, 20, color.RGBA{0, 255, 0, 255})
	layout := PageLayout{
		Width:  60,
		Height: 60,
		Boxes:  []Box{{Rect: Rect{X: 10, Y: 10, Width: 40, Height: 40}, ImagePath: src, Fit: FitProportionally}},
	}

	img, err := RenderPage(layout, 1, NewImageCache())

	require.NoError(t, err)
	// A 2:1 image in a square frame leaves bands above and below.
	assert.Equal(t, pageColor, img.NRGBAAt(30, 12))
	assert.Equal(t, uint8(255), img.NRGBAAt(30, 30).G)
}

func TestRenderPage_Errors(t *testing.T) {
	cache := NewImageCache()

	_, err := RenderPage(PageLayout{Width: 10, Height: 10}, 0, cache)
	assert.ErrorContains(t, err, "scale must be positive")

	_, err = RenderPage(PageLayout{Width: 10000, Height: 10}, 1, cache)
	assert.ErrorContains(t, err, "pixel limit")

	missing := PageLayout{Width: 10, Height: 10, Boxes: []Box{{
		Rect:      Rect{Width: 5, Height: 5},
		ImagePath: filepath.Join(t.TempDir(), "gone.png"),
	}}}
	_, err = RenderPage(missing, 1, cache)
	assert.ErrorContains(t, err, "box 0")
}

func TestSavePNG(t *testing.T) {
	img := imaging.New(4, 4, color.White)
	path := filepath.Join(t.TempDir(), "nested", "page.png")

	require.NoError(t, SavePNG(img, path))

	back, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 4, back.Bounds().Dx())

	assert.Error(t, SavePNG(img, filepath.Join(t.TempDir(), "page.jpg")))
}
