package inference

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EngineConfig is the runtime side of a model: where it lives and how it runs.
type EngineConfig struct {
	InputName  string  `json:"input_name" yaml:"input_name"`
	OutputName string  `json:"output_name" yaml:"output_name"`
	Backend    Backend `json:"backend" yaml:"backend"`
	Threads    int     `json:"threads" yaml:"threads"`
}

// ONNXEngine runs one model on ONNX Runtime: image in, flat output tensor out.
// Runs are serialized because the bound tensors are shared.
type ONNXEngine struct {
	mu      sync.Mutex
	session *Session
	input   image.Point
	layout  model.Layout
	log     *logrus.Entry
}

// NewONNXEngine creates an engine for the model described by base.
//
// Arguments:
//   - base: The model's options; Path, InputShape, Layout and OutputShape are used.
//   - cfg: Node names and execution provider.
//
// Returns:
//   - *ONNXEngine: The engine. The caller must Close it.
//   - error: An error if the session cannot be created.
func NewONNXEngine(base model.BaseModel, cfg EngineConfig) (*ONNXEngine, error) {
	if base.InputShape.X <= 0 || base.InputShape.Y <= 0 {
		return nil, errors.Errorf("model %s has no input shape", base.Name)
	}
	if len(base.OutputShape) == 0 {
		return nil, errors.Errorf("model %s has no output shape", base.Name)
	}

	session, err := NewSession(NewSessionArgs{
		ModelPath:   base.Path,
		InputName:   cfg.InputName,
		OutputName:  cfg.OutputName,
		InputShape:  base.Layout.Shape(base.InputShape.X, base.InputShape.Y),
		OutputShape: base.OutputShape,
		Backend:     cfg.Backend,
		Threads:     cfg.Threads,
	})
	if err != nil {
		return nil, err
	}

	return &ONNXEngine{
		session: session,
		input:   base.InputShape,
		layout:  base.Layout,
		log: logrus.WithFields(logrus.Fields{
			"model":   base.Name,
			"backend": cfg.Backend,
		}),
	}, nil
}

// Run prepares img, runs the model and returns a copy of the output tensor.
func (e *ONNXEngine) Run(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, errors.New("engine is closed")
	}

	if err := PrepareInput(img, e.input, e.layout, e.session.Input.GetData()); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := e.session.Session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}
	e.log.WithField("elapsed", time.Since(start)).Trace("inference complete")

	out := e.session.Output.GetData()
	result := make([]float32, len(out))
	copy(result, out)

	return result, nil
}

// Close releases the session.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}
