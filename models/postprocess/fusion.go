package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/images"
	"github.com/pkg/errors"
)

// DepthOrder states which direction of the depth model's output means nearer.
type DepthOrder string

const (
	// LargerIsNearer is the convention of inverse-depth models such as MiDaS.
	LargerIsNearer DepthOrder = "larger_is_nearer"
	// SmallerIsNearer is the convention of metric depth models.
	SmallerIsNearer DepthOrder = "smaller_is_nearer"
)

// DefaultConfidenceThreshold is the fusion confidence floor.
const DefaultConfidenceThreshold float32 = 0.5

// Valid reports whether o is a known ordering.
func (o DepthOrder) Valid() bool {
	return o == LargerIsNearer || o == SmallerIsNearer
}

// Nearer reports whether depth a is nearer than depth b under o.
func (o DepthOrder) Nearer(a, b float32) bool {
	if o == SmallerIsNearer {
		return a < b
	}
	return a > b
}

// FusionConfig controls confidence filtering and proximity ordering.
type FusionConfig struct {
	// ConfidenceThreshold drops detections with a lower confidence.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// Order is the depth convention of the depth model in use.
	Order DepthOrder `json:"order" yaml:"order"`
}

// DefaultFusionConfig returns a 0.5 confidence floor with MiDaS ordering.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Order:               LargerIsNearer,
	}
}

// Validate checks the threshold range and the ordering.
func (c FusionConfig) Validate() error {
	if !validUnit(c.ConfidenceThreshold) {
		return errors.Wrapf(common.ErrInvalidThreshold,
			"confidence threshold %v outside [0,1]", c.ConfidenceThreshold)
	}
	if !c.Order.Valid() {
		return errors.Wrapf(common.ErrInvalidThreshold, "unknown depth order %q", c.Order)
	}
	return nil
}

// Fuse samples depth at each detection's center and orders the detections
// nearest first.
//
// Detections below the confidence threshold are discarded. Each survivor is
// copied with the depth found at its truncated box center; the input slice is
// left untouched. The annotated detections are stably sorted by depth
// according to config.Order, so the index of an element in the result is its
// proximity rank.
//
// A center on the far frame edge (a box touching x=W or y=H) is pinned to the
// last column or row. Any other center outside the map is reported as
// ErrIndexOutOfBounds, which indicates a decoder that did not clamp.
//
// Arguments:
//   - detections: NMS survivors.
//   - depth: The depth map resampled to frame resolution.
//   - config: Confidence floor and depth convention.
//
// Returns:
//   - []Detection: Annotated detections, nearest first.
//   - error: ErrInvalidThreshold, ErrEmptyInput or ErrIndexOutOfBounds.
func Fuse(detections []Detection, depth *images.DepthMap, config FusionConfig) ([]Detection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if depth == nil || depth.Width() == 0 || depth.Height() == 0 {
		return nil, errors.Wrap(common.ErrEmptyInput, "fusion requires a depth map")
	}

	fused := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if !(d.Confidence >= config.ConfidenceThreshold) {
			continue
		}

		x, y, err := sampleIndex(d.Box, depth)
		if err != nil {
			return nil, err
		}

		fused = append(fused, d.WithDepth(depth.At(x, y)))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return config.Order.Nearer(fused[i].Depth, fused[j].Depth)
	})

	return fused, nil
}

// sampleIndex returns the depth map cell under the box center.
func sampleIndex(box images.Rect, depth *images.DepthMap) (int, int, error) {
	c := box.Center()
	x, y := c.X, c.Y

	if x == depth.Width() {
		x--
	}
	if y == depth.Height() {
		y--
	}

	if !depth.Contains(x, y) {
		return 0, 0, errors.Wrapf(common.ErrIndexOutOfBounds,
			"box %s center (%d,%d) outside %dx%d depth map", box, c.X, c.Y, depth.Width(), depth.Height())
	}

	return x, y, nil
}
