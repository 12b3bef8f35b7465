package yolov5

import (
	"image"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/images"
	"github.com/nvr-ai/go-proximity/models/postprocess"
	"github.com/pkg/errors"
)

// Decode converts the flat [N, 5+C] output of the YOLOv5 model into one
// detection per anchor, in anchor order.
//
// Box fields are normalized to [0,1]; they are scaled to the frame, converted
// from center/size to corners and clamped to the frame. The confidence is the
// objectness score and the class is the highest scoring class column, with
// the lowest index winning ties. No thresholding happens here.
//
// Arguments:
//   - output: The output of the YOLOv5 model.
//   - frame: The frame size the boxes are scaled to.
//
// Returns:
//   - []postprocess.Detection: Exactly N detections.
//   - error: ErrShapeMismatch if the output length or frame size is wrong.
func (m *YOLOv5) Decode(output []float32, frame image.Point) ([]postprocess.Detection, error) {
	stride := m.stride()
	n := m.options.Anchors

	if len(output) != n*stride {
		return nil, errors.Wrapf(common.ErrShapeMismatch,
			"yolov5 output has %d values, expected %d x %d", len(output), n, stride)
	}
	if frame.X <= 0 || frame.Y <= 0 {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "frame size %v", frame)
	}

	fw, fh := float32(frame.X), float32(frame.Y)
	detections := make([]postprocess.Detection, n)

	for i := 0; i < n; i++ {
		row := output[i*stride : (i+1)*stride]

		x, y := row[0]*fw, row[1]*fh
		w, h := row[2]*fw, row[3]*fh

		classID := argmax(row[boxFields:])

		detections[i] = postprocess.Detection{
			ClassID:    classID,
			Label:      m.labels.Name(classID),
			Confidence: row[4],
			Box:        images.ClampRect(x-w/2, y-h/2, x+w/2, y+h/2, frame.X, frame.Y),
		}
	}

	return detections, nil
}

// argmax returns the index of the largest score; the first index wins ties.
func argmax(scores []float32) int {
	best := 0
	for j := 1; j < len(scores); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	return best
}
