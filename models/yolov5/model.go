// Package yolov5 - YOLOv5 model.
package yolov5

import (
	"image"

	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/pkg/errors"
)

// boxFields is the number of leading columns per anchor: cx, cy, w, h, objectness.
const boxFields = 5

// Options is the options for the YOLOv5 model.
type Options struct {
	Path   string       `json:"path" yaml:"path"`
	Input  image.Point  `json:"input" yaml:"input"`
	Layout model.Layout `json:"layout" yaml:"layout"`
	// Anchors is N in the [N, 5+C] output tensor.
	Anchors int `json:"anchors" yaml:"anchors"`
	// Classes is C.
	Classes int `json:"classes" yaml:"classes"`
}

// YOLOv5 is the instance of the YOLOv5 model.
type YOLOv5 struct {
	options Options
	labels  *model.Vocabulary
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model. A zero Classes takes the
//     label count.
//
// Returns:
//   - The model.
func NewModel(args model.NewModelArgs) (*YOLOv5, error) {
	if args.Anchors <= 0 {
		return nil, errors.Errorf("NewModel requires a positive anchor count, got %d", args.Anchors)
	}

	if len(args.Labels) == 0 {
		return nil, errors.New("NewModel requires labels to be set")
	}

	classes := args.Classes
	if classes == 0 {
		classes = len(args.Labels)
	}
	if classes <= 0 {
		return nil, errors.Errorf("NewModel requires a positive class count, got %d", classes)
	}

	if args.Input.X <= 0 || args.Input.Y <= 0 {
		return nil, errors.Errorf("NewModel requires an input shape, got %v", args.Input)
	}

	layout := args.Layout
	if layout == "" {
		layout = model.LayoutNHWC
	}

	return &YOLOv5{
		options: Options{
			Path:    args.Path,
			Input:   args.Input,
			Layout:  layout,
			Anchors: args.Anchors,
			Classes: classes,
		},
		labels: model.NewVocabulary(args.Labels),
	}, nil
}

// Options returns the options for the YOLOv5 model.
func (m *YOLOv5) Options() model.BaseModel {
	return model.BaseModel{
		Name:        model.ModelNameYOLOv5,
		Family:      model.ModelFamilyYOLO,
		Path:        m.options.Path,
		InputShape:  m.options.Input,
		Layout:      m.options.Layout,
		OutputShape: []int64{1, int64(m.options.Anchors), int64(m.stride())},
	}
}

// Labels returns the vocabulary used to resolve class ids.
func (m *YOLOv5) Labels() *model.Vocabulary {
	return m.labels
}

// stride is the number of floats per anchor row.
func (m *YOLOv5) stride() int {
	return boxFields + m.options.Classes
}
