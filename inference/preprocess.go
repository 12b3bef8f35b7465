package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/pkg/errors"
)

// PrepareInput resizes img to the model input and writes it into dst as RGB
// values normalized to [0,1].
//
// The image is resized with bilinear interpolation unless it already has the
// input size. NHWC layouts interleave the channels per pixel, NCHW layouts
// store one plane per channel.
//
// Arguments:
//   - img: The frame to prepare.
//   - size: The model input size in pixels.
//   - layout: The input tensor layout.
//   - dst: The destination tensor buffer, at least size.X*size.Y*3 floats.
//
// Returns:
//   - error: ErrEmptyInput for an empty image, ErrShapeMismatch for a short
//     destination.
func PrepareInput(img image.Image, size image.Point, layout model.Layout, dst []float32) error {
	if img == nil || img.Bounds().Empty() {
		return errors.Wrap(common.ErrEmptyInput, "prepare input: empty image")
	}
	if size.X <= 0 || size.Y <= 0 {
		return errors.Wrapf(common.ErrEmptyInput, "prepare input: input size %v", size)
	}

	plane := size.X * size.Y
	if len(dst) < plane*3 {
		return errors.Wrapf(common.ErrShapeMismatch,
			"destination tensor only holds %d floats, needs %d", len(dst), plane*3)
	}

	b := img.Bounds()
	if b.Dx() != size.X || b.Dy() != size.Y {
		img = resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear)
		b = img.Bounds()
	}

	i := 0
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rf := float32(r>>8) / 255.0
			gf := float32(g>>8) / 255.0
			bf := float32(bl>>8) / 255.0

			if layout == model.LayoutNCHW {
				dst[i] = rf
				dst[plane+i] = gf
				dst[2*plane+i] = bf
			} else {
				dst[3*i] = rf
				dst[3*i+1] = gf
				dst[3*i+2] = bf
			}
			i++
		}
	}

	return nil
}
