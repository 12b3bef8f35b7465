// Package midas - MiDaS relative depth model.
package midas

import (
	"image"

	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/nvr-ai/go-proximity/models/postprocess"
	"github.com/pkg/errors"
)

// Options is the options for the MiDaS model.
type Options struct {
	Path   string       `json:"path" yaml:"path"`
	Input  image.Point  `json:"input" yaml:"input"`
	Layout model.Layout `json:"layout" yaml:"layout"`
	// Output is the size of the depth map the model produces.
	Output image.Point `json:"output" yaml:"output"`
}

// MiDaS is the instance of the MiDaS model.
type MiDaS struct {
	options Options
}

// NewModel creates a new model. When args.Output is unset the depth map is
// assumed to match the input size, as it does for the small MiDaS exports.
func NewModel(args model.NewModelArgs) (*MiDaS, error) {
	if args.Input.X <= 0 || args.Input.Y <= 0 {
		return nil, errors.Errorf("NewModel requires an input shape, got %v", args.Input)
	}

	output := args.Output
	if output == (image.Point{}) {
		output = args.Input
	}
	if output.X <= 0 || output.Y <= 0 {
		return nil, errors.Errorf("NewModel requires a positive output shape, got %v", output)
	}

	layout := args.Layout
	if layout == "" {
		layout = model.LayoutNHWC
	}

	return &MiDaS{
		options: Options{
			Path:   args.Path,
			Input:  args.Input,
			Layout: layout,
			Output: output,
		},
	}, nil
}

// Options returns the options for the MiDaS model.
func (m *MiDaS) Options() model.BaseModel {
	return model.BaseModel{
		Name:        model.ModelNameMiDaS,
		Family:      model.ModelFamilyMiDaS,
		Path:        m.options.Path,
		InputShape:  m.options.Input,
		Layout:      m.options.Layout,
		OutputShape: []int64{1, int64(m.options.Output.Y), int64(m.options.Output.X)},
	}
}

// Order returns the depth convention of MiDaS: it predicts inverse relative
// depth, so larger values are nearer.
func (m *MiDaS) Order() postprocess.DepthOrder {
	return postprocess.LargerIsNearer
}
