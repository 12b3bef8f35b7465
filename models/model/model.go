// Package model - Capability interfaces shared by the detection and depth models.
package model

import (
	"image"

	"github.com/nvr-ai/go-proximity/images"
	"github.com/nvr-ai/go-proximity/models/postprocess"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyYOLO is the YOLO detector family.
	ModelFamilyYOLO Family = "yolo"
	// ModelFamilyMiDaS is the MiDaS monocular depth family.
	ModelFamilyMiDaS Family = "midas"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameYOLOv5 is the name of the YOLOv5 detector.
	ModelNameYOLOv5 Name = "yolov5"
	// ModelNameMiDaS is the name of the MiDaS depth estimator.
	ModelNameMiDaS Name = "midas"
)

// BaseModel is the base model for all models.
type BaseModel struct {
	Name   Name
	Family Family
	Path   string
	// InputShape is the model input in pixels.
	InputShape image.Point
	// Layout is the channel ordering of the input tensor.
	Layout Layout
	// OutputShape is the shape of the single output tensor.
	OutputShape []int64
}

// Decoder turns a raw detector output tensor into detections.
type Decoder interface {
	Options() BaseModel
	Decode(output []float32, frame image.Point) ([]postprocess.Detection, error)
}

// Estimator turns a raw depth output tensor into a depth map.
type Estimator interface {
	Options() BaseModel
	Estimate(output []float32) (*images.DepthMap, error)
	Order() postprocess.DepthOrder
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name   Name   `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Layout Layout `json:"layout" yaml:"layout"`
	// Input is the model input size in pixels.
	Input image.Point `json:"input" yaml:"input"`
	// Output is the depth map size for estimators. Zero means the input size.
	Output image.Point `json:"output" yaml:"output"`
	// Anchors is the number of detector output rows.
	Anchors int `json:"anchors" yaml:"anchors"`
	// Classes is C in the detector's [N, 5+C] output. Zero takes the label count.
	Classes int `json:"classes" yaml:"classes"`
	// Labels is the detector vocabulary. Class ids past its end are named
	// "unknown_<id>".
	Labels []string `json:"labels" yaml:"labels"`
}
