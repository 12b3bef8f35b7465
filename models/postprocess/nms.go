package postprocess

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/images"
	"github.com/pkg/errors"
)

const (
	// DefaultIoUThreshold is the overlap at or above which a lower scoring box
	// is suppressed.
	DefaultIoUThreshold float32 = 0.45
	// DefaultScoreThreshold disables the score floor; confidence filtering
	// happens during fusion.
	DefaultScoreThreshold float32 = 0.0
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap threshold for suppression, in [0,1].
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ScoreThreshold drops detections with a lower confidence before
	// suppression. Zero keeps everything.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
}

// DefaultNMSConfig returns the standard YOLO suppression settings:
// IoU 0.45 and no score floor.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{
		IoUThreshold:   DefaultIoUThreshold,
		ScoreThreshold: DefaultScoreThreshold,
	}
}

// Validate checks both thresholds are finite and within [0,1].
func (c NMSConfig) Validate() error {
	if !validUnit(c.IoUThreshold) {
		return errors.Wrapf(common.ErrInvalidThreshold, "iou threshold %v outside [0,1]", c.IoUThreshold)
	}
	if !validUnit(c.ScoreThreshold) {
		return errors.Wrapf(common.ErrInvalidThreshold, "score threshold %v outside [0,1]", c.ScoreThreshold)
	}
	return nil
}

// ApplyNMS performs class-agnostic greedy Non-Maximum Suppression.
//
// Detections below the score floor are dropped, the rest are stably sorted by
// descending confidence (equal confidences keep their input order), then the
// highest remaining detection is kept and every remaining detection whose IoU
// with it is at least IoUThreshold is discarded, until none remain.
//
// Arguments:
//   - detections: The decoded detections, in any order. Not modified.
//   - config: NMS thresholds.
//
// Returns:
//   - []Detection: The kept detections in descending confidence. Empty, never
//     nil, when nothing survives.
//   - error: ErrInvalidThreshold for out-of-range thresholds.
func ApplyNMS(detections []Detection, config NMSConfig) ([]Detection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	candidates := make([]Detection, 0, len(detections))
	for _, d := range detections {
		// Written so a NaN confidence fails the floor.
		if !(d.Confidence >= config.ScoreThreshold) {
			continue
		}
		candidates = append(candidates, d)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	return applyGreedyNMS(candidates, config.IoUThreshold), nil
}

// applyGreedyNMS suppresses overlaps in a slice already sorted by descending
// confidence.
func applyGreedyNMS(sorted []Detection, iouThreshold float32) []Detection {
	n := len(sorted)
	filtered := make([]Detection, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := sorted[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if images.CalculateIoU(anchor.Box, sorted[j].Box) >= iouThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}

func validUnit(v float32) bool {
	return !math32.IsNaN(v) && v >= 0 && v <= 1
}
