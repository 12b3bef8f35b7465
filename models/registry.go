package models

import (
	"github.com/nvr-ai/go-proximity/models/midas"
	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/nvr-ai/go-proximity/models/yolov5"
	"github.com/pkg/errors"
)

// NewDecoder creates a detection model instance based on the specified model
// name.
//
// Detectors are created through this factory so the pipeline depends only on
// the model.Decoder capability. When args.Labels is empty the YOLO COCO
// vocabulary is used.
//
// Arguments:
//   - args: Configuration parameters specifying the model type and shapes.
//
// Returns:
//   - model.Decoder: The configured decoder.
//   - error: An error if the name is unsupported or validation fails.
//
// Example:
//
//	dec, err := NewDecoder(model.NewModelArgs{
//	    Name:    model.ModelNameYOLOv5,
//	    Path:    "/models/yolov5s.onnx",
//	    Input:   image.Pt(320, 320),
//	    Anchors: 6300,
//	})
func NewDecoder(args model.NewModelArgs) (model.Decoder, error) {
	if len(args.Labels) == 0 {
		args.Labels = YOLOClasses
	}

	switch args.Name {
	case model.ModelNameYOLOv5:
		m, err := yolov5.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Errorf("unsupported detector name: %s", args.Name)
	}
}

// NewEstimator creates a depth model instance based on the specified model name.
func NewEstimator(args model.NewModelArgs) (model.Estimator, error) {
	switch args.Name {
	case model.ModelNameMiDaS:
		m, err := midas.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Errorf("unsupported depth model name: %s", args.Name)
	}
}
