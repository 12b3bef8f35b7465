package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Layout is the memory order of an image input tensor.
type Layout string

const (
	// LayoutNHWC stores channels last, as TFLite exports do.
	LayoutNHWC Layout = "nhwc"
	// LayoutNCHW stores channels first, as PyTorch ONNX exports do.
	LayoutNCHW Layout = "nchw"
)

// ParseLayout returns the layout named by s, case-insensitively.
// An empty string selects NHWC.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutNHWC:
		return LayoutNHWC, nil
	case LayoutNCHW:
		return LayoutNCHW, nil
	default:
		return "", errors.Errorf("unknown tensor layout %q", s)
	}
}

// Shape returns the four dimensional input tensor shape for a 3-channel
// image of the given size.
func (l Layout) Shape(width, height int) []int64 {
	if l == LayoutNCHW {
		return []int64{1, 3, int64(height), int64(width)}
	}
	return []int64{1, int64(height), int64(width), 3}
}
