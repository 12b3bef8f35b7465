// Package config - YAML configuration for the proximity pipeline.
package config

import (
	"bytes"
	"image"
	"os"

	"github.com/nvr-ai/go-proximity/inference"
	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/nvr-ai/go-proximity/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Shape is a [width, height] pair.
type Shape [2]int

// Point converts the shape to an image.Point.
func (s Shape) Point() image.Point {
	return image.Pt(s[0], s[1])
}

func (s Shape) valid() bool {
	return s[0] > 0 && s[1] > 0
}

// ModelConfig describes one model and how to run it.
type ModelConfig struct {
	Name   model.Name   `yaml:"name"`
	Path   string       `yaml:"path"`
	Input  Shape        `yaml:"input"`
	Layout model.Layout `yaml:"layout"`
	// Output is the depth map size; depth models only.
	Output Shape `yaml:"output,omitempty"`
	// Anchors is the number of output rows; detectors only.
	Anchors int `yaml:"anchors,omitempty"`
	// Classes is the detector class count. Zero takes the label count.
	Classes int `yaml:"classes,omitempty"`
	// Labels is a label file; detectors only. Empty selects the COCO labels.
	Labels string `yaml:"labels,omitempty"`

	Engine inference.EngineConfig `yaml:",inline"`
}

// Args converts the config into model constructor arguments.
func (m ModelConfig) Args(labels []string) model.NewModelArgs {
	return model.NewModelArgs{
		Name:    m.Name,
		Path:    m.Path,
		Layout:  m.Layout,
		Input:   m.Input.Point(),
		Output:  m.Output.Point(),
		Anchors: m.Anchors,
		Classes: m.Classes,
		Labels:  labels,
	}
}

// Config is the top level configuration file.
type Config struct {
	Detector ModelConfig              `yaml:"detector"`
	Depth    ModelConfig              `yaml:"depth"`
	NMS      postprocess.NMSConfig    `yaml:"nms"`
	Fusion   postprocess.FusionConfig `yaml:"fusion"`
	// Parallel runs the two models concurrently on each frame.
	Parallel bool   `yaml:"parallel"`
	LogLevel string `yaml:"log_level"`
	// Library overrides the onnxruntime shared library location.
	Library string `yaml:"onnxruntime_library,omitempty"`
}

// Default returns the configuration of a 320x320 YOLOv5 detector paired with
// a 256x256 MiDaS depth model.
func Default() Config {
	return Config{
		Detector: ModelConfig{
			Name:    model.ModelNameYOLOv5,
			Path:    "yolov5s.onnx",
			Input:   Shape{320, 320},
			Layout:  model.LayoutNHWC,
			Anchors: 6300,
			Engine: inference.EngineConfig{
				InputName:  "images",
				OutputName: "output0",
				Backend:    inference.BackendCPU,
			},
		},
		Depth: ModelConfig{
			Name:   model.ModelNameMiDaS,
			Path:   "midas_small.onnx",
			Input:  Shape{256, 256},
			Output: Shape{256, 256},
			Layout: model.LayoutNHWC,
			Engine: inference.EngineConfig{
				InputName:  "input",
				OutputName: "output",
				Backend:    inference.BackendCPU,
			},
		},
		NMS:      postprocess.DefaultNMSConfig(),
		Fusion:   postprocess.DefaultFusionConfig(),
		Parallel: true,
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults and validates the result.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks thresholds, shapes and enumerations. Threshold problems
// are reported as ErrInvalidThreshold.
func (c Config) Validate() error {
	if err := c.NMS.Validate(); err != nil {
		return err
	}
	if err := c.Fusion.Validate(); err != nil {
		return err
	}

	if err := c.Detector.validate("detector"); err != nil {
		return err
	}
	if c.Detector.Anchors <= 0 {
		return errors.Errorf("detector: anchors must be positive, got %d", c.Detector.Anchors)
	}
	if c.Detector.Classes < 0 {
		return errors.Errorf("detector: classes must not be negative, got %d", c.Detector.Classes)
	}

	if err := c.Depth.validate("depth"); err != nil {
		return err
	}
	if c.Depth.Output != (Shape{}) && !c.Depth.Output.valid() {
		return errors.Errorf("depth: invalid output shape %v", c.Depth.Output)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (m ModelConfig) validate(section string) error {
	if m.Name == "" {
		return errors.Errorf("%s: name is required", section)
	}
	if !m.Input.valid() {
		return errors.Errorf("%s: invalid input shape %v", section, m.Input)
	}
	if _, err := model.ParseLayout(string(m.Layout)); err != nil {
		return errors.Wrap(err, section)
	}
	if _, err := inference.ParseBackend(string(m.Engine.Backend)); err != nil {
		return errors.Wrap(err, section)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, errors.Wrap(err, "log_level")
	}
	return level, nil
}
