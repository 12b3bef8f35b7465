// Package postprocess - Suppression, fusion and ranking of decoded detections.
package postprocess

import (
	"fmt"

	"github.com/nvr-ai/go-proximity/images"
)

// Detection represents a single recognized object instance.
type Detection struct {
	// ClassID is the index of the class in the label vocabulary.
	ClassID int `json:"class_id" yaml:"class_id"`
	// Label is the class name resolved from ClassID.
	Label string `json:"label" yaml:"label"`
	// Confidence is the objectness score in [0,1].
	Confidence float32 `json:"confidence" yaml:"confidence"`
	// Box is the bounding box in frame pixel coordinates, clamped to the frame.
	Box images.Rect `json:"box" yaml:"box"`
	// Depth is the relative depth sampled at the box center. Only meaningful
	// when HasDepth is set, which Fuse does.
	Depth float32 `json:"depth" yaml:"depth"`
	// HasDepth reports whether Depth has been populated.
	HasDepth bool `json:"has_depth" yaml:"has_depth"`
}

// WithDepth returns a copy of the detection annotated with depth.
func (d Detection) WithDepth(depth float32) Detection {
	d.Depth = depth
	d.HasDepth = true
	return d
}

func (d Detection) String() string {
	s := fmt.Sprintf("%d %s (%.1f%%) %s", d.ClassID, d.Label, d.Confidence*100, d.Box)
	if d.HasDepth {
		s += fmt.Sprintf(" depth=%.3f", d.Depth)
	}
	return s
}
