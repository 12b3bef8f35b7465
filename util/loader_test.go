package util

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestLoadDirectoryImages(t *testing.T) {
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "frame-10.png"), 4, 3)
	writePNG(t, filepath.Join(dir, "frame-2.png"), 4, 3)
	writePNG(t, filepath.Join(dir, "cover.png"), 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame-1.png"), 0o700))

	images, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, 2, images[0].Frame)
	assert.Equal(t, 10, images[1].Frame)
	assert.Equal(t, -1, images[2].Frame)
	assert.Equal(t, filepath.Join(dir, "cover.png"), images[2].Path)

	img, err := images[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 3), img.Bounds().Size())
}

func TestLoadDirectoryImages_Errors(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = ImageFile{Path: "broken.png", Data: []byte("not an image")}.Decode()
	assert.Error(t, err)
}

func TestLoadDirectoryImages_WebP(t *testing.T) {
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, img, &webp.Options{Lossless: true}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame-0.webp"), buf.Bytes(), 0o600))

	images, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, images, 1)

	decoded, err := images[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 6), decoded.Bounds().Size())
}
