package midas

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/images"
	"github.com/pkg/errors"
)

// Estimate wraps the flat row-major output of the MiDaS model in a depth map
// at the model's native resolution.
//
// MiDaS output is unbounded relative depth. NaN and infinite samples are
// replaced by the smallest finite sample so they rank as the farthest point
// rather than poisoning the ordering.
//
// Arguments:
//   - output: The output of the MiDaS model, Output.Y rows of Output.X values.
//
// Returns:
//   - *images.DepthMap: The native-resolution depth map.
//   - error: ErrShapeMismatch on a length mismatch, ErrEmptyInput when no
//     sample is finite.
func (m *MiDaS) Estimate(output []float32) (*images.DepthMap, error) {
	w, h := m.options.Output.X, m.options.Output.Y

	if len(output) != w*h {
		return nil, errors.Wrapf(common.ErrShapeMismatch,
			"midas output has %d values, expected %dx%d", len(output), w, h)
	}

	data := make([]float32, len(output))
	copy(data, output)

	lo, ok := finiteMin(data)
	if !ok {
		return nil, errors.Wrap(common.ErrEmptyInput, "midas output has no finite values")
	}

	for i, v := range data {
		if !finite(v) {
			data[i] = lo
		}
	}

	return images.NewDepthMap(data, w, h)
}

func finiteMin(data []float32) (float32, bool) {
	lo := math32.Inf(1)
	found := false
	for _, v := range data {
		if finite(v) && v < lo {
			lo = v
			found = true
		}
	}
	return lo, found
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
