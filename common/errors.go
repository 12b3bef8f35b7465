// Package common - Error taxonomy shared by the decoding, resampling and fusion stages.
package common

import "github.com/pkg/errors"

var (
	// ErrShapeMismatch is returned when a tensor length does not match the
	// expected model output shape. Fatal to the frame only.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyInput is returned for zero-sized depth maps, frames or targets.
	// Fatal to the frame only.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidThreshold is returned when a caller passes an out-of-range
	// threshold. Raised at configuration time, not per frame.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrIndexOutOfBounds is returned when a box center falls outside the
	// resampled depth map.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)

// IsFrameError reports whether err is one of the per-frame failures that
// should cause the frame to be skipped rather than the run to stop.
func IsFrameError(err error) bool {
	return errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrIndexOutOfBounds)
}
