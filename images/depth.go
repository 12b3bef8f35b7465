package images

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-proximity/common"
	"github.com/pkg/errors"
)

// DepthMap is a dense row-major grid of relative depth samples.
//
// A DepthMap produced by a depth estimator has the estimator's native output
// resolution; Resample derives a new map at frame resolution. Maps are never
// modified after construction.
type DepthMap struct {
	width  int
	height int
	data   []float32
}

// NewDepthMap wraps a row-major buffer of width*height samples.
//
// The buffer is copied so the caller may reuse it for the next inference.
//
// Arguments:
//   - data: The row-major depth samples, data[y*width+x].
//   - width: The number of columns.
//   - height: The number of rows.
//
// Returns:
//   - *DepthMap: The depth map.
//   - error: ErrEmptyInput for a zero-sized map, ErrShapeMismatch when the
//     buffer length does not equal width*height.
func NewDepthMap(data []float32, width, height int) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(common.ErrEmptyInput, "depth map is %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Wrapf(common.ErrShapeMismatch,
			"depth buffer holds %d samples, expected %dx%d=%d", len(data), width, height, width*height)
	}

	buf := make([]float32, len(data))
	copy(buf, data)

	return &DepthMap{width: width, height: height, data: buf}, nil
}

// Width returns the number of columns.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the number of rows.
func (dm *DepthMap) Height() int {
	return dm.height
}

// At returns the sample at column x, row y. It panics when out of range, like
// slice indexing; callers bounds-check with Contains first.
func (dm *DepthMap) At(x, y int) float32 {
	return dm.data[y*dm.width+x]
}

// Contains reports whether (x, y) addresses a sample of the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// Data returns a copy of the row-major samples.
func (dm *DepthMap) Data() []float32 {
	out := make([]float32, len(dm.data))
	copy(out, dm.data)
	return out
}

// MinMax returns the smallest and largest sample.
func (dm *DepthMap) MinMax() (float32, float32) {
	lo, hi := dm.data[0], dm.data[0]
	for _, v := range dm.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Resample upsamples (or downsamples) the map to width x height using
// bilinear interpolation.
//
// Source coordinates use the align-corners mapping
//
//	sx = x * (w-1) / (W-1)
//	sy = y * (h-1) / (H-1)
//
// so the four corners of the target equal the four corners of the source. For
// each target cell the floor and ceil neighbours of (sx, sy) are clamped to
// the source bounds and blended by the fractional offsets along both axes.
// Every target row and column, including the last, is written.
//
// Arguments:
//   - width: The target number of columns (the frame width).
//   - height: The target number of rows (the frame height).
//
// Returns:
//   - *DepthMap: A new map of exactly width x height.
//   - error: ErrEmptyInput when the target has a zero dimension.
func (dm *DepthMap) Resample(width, height int) (*DepthMap, error) {
	if dm == nil || dm.width <= 0 || dm.height <= 0 {
		return nil, errors.Wrap(common.ErrEmptyInput, "source depth map is empty")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(common.ErrEmptyInput, "resample target is %dx%d", width, height)
	}

	cols := axisSamples(dm.width, width)
	rows := axisSamples(dm.height, height)

	out := make([]float32, width*height)
	for y, ry := range rows {
		top := dm.data[ry.lo*dm.width : (ry.lo+1)*dm.width]
		bottom := dm.data[ry.hi*dm.width : (ry.hi+1)*dm.width]
		dst := out[y*width : (y+1)*width]

		for x, cx := range cols {
			dst[x] = bilinear(cx.frac, ry.frac,
				top[cx.lo], top[cx.hi],
				bottom[cx.lo], bottom[cx.hi],
			)
		}
	}

	return &DepthMap{width: width, height: height, data: out}, nil
}

// axisSample holds the two source indices and blend weight for one target
// index along a single axis.
type axisSample struct {
	lo, hi int
	frac   float32
}

// axisSamples precomputes the source neighbours for every target index so the
// inner loop of Resample does no floor/ceil work.
func axisSamples(src, dst int) []axisSample {
	var ratio float32
	if dst > 1 {
		ratio = float32(src-1) / float32(dst-1)
	}

	samples := make([]axisSample, dst)
	for i := range samples {
		s := ratio * float32(i)
		lo := clampIndex(int(math32.Floor(s)), src)
		hi := clampIndex(int(math32.Ceil(s)), src)

		frac := s - float32(lo)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}

		samples[i] = axisSample{lo: lo, hi: hi, frac: frac}
	}
	return samples
}

// bilinear blends the four neighbours a (top-left), b (top-right),
// c (bottom-left) and d (bottom-right). Written in lerp form so equal
// neighbours reproduce their value exactly.
func bilinear(fx, fy, a, b, c, d float32) float32 {
	top := a + fx*(b-a)
	bottom := c + fx*(d-c)
	return top + fy*(bottom-top)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
