package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPixels() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 51, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 255, B: 102, A: 255})
	return img
}

func TestPrepareInput_Layouts(t *testing.T) {
	t.Run("nhwc", func(t *testing.T) {
		dst := make([]float32, 6)
		require.NoError(t, PrepareInput(twoPixels(), image.Pt(2, 1), model.LayoutNHWC, dst))
		assert.Equal(t, []float32{1, 0, 0.2, 0, 1, 0.4}, dst)
	})

	t.Run("nchw", func(t *testing.T) {
		dst := make([]float32, 6)
		require.NoError(t, PrepareInput(twoPixels(), image.Pt(2, 1), model.LayoutNCHW, dst))
		assert.Equal(t, []float32{1, 0, 0, 1, 0.2, 0.4}, dst)
	})
}

func TestPrepareInput_Resizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 64, B: 32, A: 255})
		}
	}

	dst := make([]float32, 16*16*3)
	require.NoError(t, PrepareInput(img, image.Pt(16, 16), model.LayoutNHWC, dst))

	for i := 0; i < len(dst); i += 3 {
		assert.InDelta(t, 128.0/255, dst[i], 0.01)
		assert.InDelta(t, 64.0/255, dst[i+1], 0.01)
		assert.InDelta(t, 32.0/255, dst[i+2], 0.01)
	}
}

func TestPrepareInput_Errors(t *testing.T) {
	err := PrepareInput(twoPixels(), image.Pt(2, 1), model.LayoutNHWC, make([]float32, 5))
	assert.True(t, errors.Is(err, common.ErrShapeMismatch))

	err = PrepareInput(image.NewRGBA(image.Rectangle{}), image.Pt(2, 1), model.LayoutNHWC, make([]float32, 6))
	assert.True(t, errors.Is(err, common.ErrEmptyInput))

	err = PrepareInput(nil, image.Pt(2, 1), model.LayoutNHWC, make([]float32, 6))
	assert.True(t, errors.Is(err, common.ErrEmptyInput))
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendCPU, b)

	b, err = ParseBackend("CoreML")
	require.NoError(t, err)
	assert.Equal(t, BackendCoreML, b)

	_, err = ParseBackend("tpu")
	assert.Error(t, err)
}

func TestGetSharedLibPath_Override(t *testing.T) {
	p, err := GetSharedLibPath(func(key string) string {
		if key == "ONNXRUNTIME_LIB" {
			return "/opt/ort/libonnxruntime.so"
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", p)
}
