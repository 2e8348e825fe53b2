package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSolidPNG writes a width x height PNG filled with c into a temp dir.
func writeSolidPNG(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestImageCache_Load(t *testing.T) {
	path := writeSolidPNG(t, "red.png", 40, 30, color.RGBA{255, 0, 0, 255})
	cache := NewImageCache()

	img, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
	assert.Equal(t, 1, cache.Len())

	again, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, img, again, "second load must hit the cache")
}

func TestImageCache_LoadErrors(t *testing.T) {
	cache := NewImageCache()

	_, err := cache.Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "failed to open image")

	bogus := filepath.Join(t.TempDir(), "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("not an image"), 0o600))
	_, err = cache.Load(bogus)
	assert.ErrorContains(t, err, "failed to decode image")
	assert.Zero(t, cache.Len())
}

func TestImageCache_EvictAndClear(t *testing.T) {
	a := writeSolidPNG(t, "a.png", 4, 4, color.White)
	b := writeSolidPNG(t, "b.png", 4, 4, color.Black)
	cache := NewImageCache()
	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)

	cache.Evict(a)
	cache.Evict("never-loaded.png")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Zero(t, cache.Len())
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	path := writeSolidPNG(t, "shared.png", 16, 16, color.White)
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestLoadImageInfo(t *testing.T) {
	path := writeSolidPNG(t, "info.png", 120, 80, color.RGBA{0, 0, 255, 255})

	info, err := LoadImageInfo(NewImageCache(), path)

	require.NoError(t, err)
	assert.Equal(t, 120, info.Width)
	assert.Equal(t, 80, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.FileSizeBytes)
}

func TestLoadImageInfo_FormatDetection(t *testing.T) {
	src := imaging.New(8, 8, color.NRGBA{10, 20, 30, 255})
	dir := t.TempDir()
	tests := map[string]string{
		"photo.jpg":  "jpeg",
		"photo.jpeg": "jpeg",
		"anim.gif":   "gif",
		"scan.tif":   "tiff",
		"legacy.bmp": "bmp",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, imaging.Save(src, path))

			info, err := LoadImageInfo(NewImageCache(), path)

			require.NoError(t, err)
			assert.Equal(t, want, info.Format)
			assert.Equal(t, 8, info.Width)
		})
	}
}

func TestEffectivePPI(t *testing.T) {
	x, y := EffectivePPI(300, 600, 72, 144)
	assert.InDelta(t, 300, x, 1e-9)
	assert.InDelta(t, 300, y, 1e-9)

	x, y = EffectivePPI(300, 300, 0, 72)
	assert.Zero(t, x)
	assert.Zero(t, y)
}
