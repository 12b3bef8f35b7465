// Package controller - Per-frame orchestration of the detection and depth models.
package controller

import (
	"context"
	"image"
	"time"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/nvr-ai/go-proximity/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Frame is a single frame of video.
type Frame struct {
	ID        int
	Image     image.Image
	Timestamp time.Time
}

// Engine runs one model on an image and returns its flat output tensor.
type Engine interface {
	Run(ctx context.Context, img image.Image) ([]float32, error)
}

// Timings records where the time of a frame went.
type Timings struct {
	Inference   time.Duration
	Postprocess time.Duration
}

// Result is the outcome of one frame.
type Result struct {
	FrameID int
	// Size is the frame resolution detections are expressed in.
	Size image.Point
	// Detections are ordered nearest first; the index is the proximity rank.
	Detections []postprocess.Detection
	Timings    Timings
}

// Config wires the models, engines and thresholds of a Pipeline.
type Config struct {
	Decoder     model.Decoder
	Estimator   model.Estimator
	Detector    Engine
	DepthEngine Engine
	NMS         postprocess.NMSConfig
	Fusion      postprocess.FusionConfig
	// Parallel runs the two engines concurrently.
	Parallel bool
	Log      *logrus.Entry
}

// Pipeline turns frames into detections ordered by proximity. It holds no
// per-frame state and may be shared between goroutines if its engines can.
type Pipeline struct {
	cfg Config
	log *logrus.Entry
}

// NewPipeline validates cfg and returns a pipeline.
//
// Arguments:
//   - cfg: The pipeline configuration. Engines may be nil when only Analyze is
//     used. An empty Fusion.Order takes the estimator's native order.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: ErrInvalidThreshold for bad thresholds, or a missing model.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("pipeline requires a detection decoder")
	}
	if cfg.Estimator == nil {
		return nil, errors.New("pipeline requires a depth estimator")
	}
	if err := cfg.NMS.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "pipeline")

	native := cfg.Estimator.Order()
	switch cfg.Fusion.Order {
	case "":
		cfg.Fusion.Order = native
	case native:
	default:
		log.WithFields(logrus.Fields{
			"order":  cfg.Fusion.Order,
			"native": native,
		}).Warn("fusion order differs from the depth model")
	}
	if err := cfg.Fusion.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, log: log}, nil
}

// Order returns the depth convention fusion ranks by.
func (p *Pipeline) Order() postprocess.DepthOrder {
	return p.cfg.Fusion.Order
}

// Analyze runs the pure part of the pipeline over raw model outputs: decode,
// suppress, resample the depth map to the frame and fuse.
//
// Arguments:
//   - frame: The frame resolution.
//   - detections: The detector output tensor.
//   - depth: The depth model output tensor.
//
// Returns:
//   - []postprocess.Detection: Detections nearest first. Empty when nothing
//     clears the thresholds.
//   - error: One of the per-frame errors in common.
func (p *Pipeline) Analyze(frame image.Point, detections, depth []float32) ([]postprocess.Detection, error) {
	if frame.X <= 0 || frame.Y <= 0 {
		return nil, errors.Wrapf(common.ErrEmptyInput, "frame size %v", frame)
	}

	decoded, err := p.cfg.Decoder.Decode(detections, frame)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	kept, err := postprocess.ApplyNMS(decoded, p.cfg.NMS)
	if err != nil {
		return nil, errors.Wrap(err, "nms")
	}

	native, err := p.cfg.Estimator.Estimate(depth)
	if err != nil {
		return nil, errors.Wrap(err, "estimate depth")
	}

	resampled, err := native.Resample(frame.X, frame.Y)
	if err != nil {
		return nil, errors.Wrap(err, "resample depth")
	}

	if p.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		lo, hi := resampled.MinMax()
		p.log.WithFields(logrus.Fields{
			"depth_min": lo,
			"depth_max": hi,
			"kept":      len(kept),
		}).Debug("depth resampled")
	}

	fused, err := postprocess.Fuse(kept, resampled, p.cfg.Fusion)
	if err != nil {
		return nil, errors.Wrap(err, "fuse")
	}

	return fused, nil
}

// Process runs both engines on a frame and analyzes their outputs.
//
// Arguments:
//   - ctx: Checked before and between inference calls.
//   - frame: The frame to process.
//
// Returns:
//   - *Result: The ordered detections and timings.
//   - error: A per-frame error wrapped with the frame ID.
func (p *Pipeline) Process(ctx context.Context, frame Frame) (*Result, error) {
	if frame.Image == nil || frame.Image.Bounds().Empty() {
		return nil, errors.Wrapf(common.ErrEmptyInput, "frame %d has no pixels", frame.ID)
	}
	if p.cfg.Detector == nil || p.cfg.DepthEngine == nil {
		return nil, errors.New("pipeline has no inference engines")
	}

	size := frame.Image.Bounds().Size()
	log := p.log.WithField("frame", frame.ID)

	start := time.Now()
	detOut, depthOut, err := p.infer(ctx, frame.Image)
	if err != nil {
		return nil, errors.Wrapf(err, "frame %d inference", frame.ID)
	}
	inferred := time.Now()

	detections, err := p.Analyze(size, detOut, depthOut)
	if err != nil {
		return nil, errors.Wrapf(err, "frame %d", frame.ID)
	}

	result := &Result{
		FrameID:    frame.ID,
		Size:       size,
		Detections: detections,
		Timings: Timings{
			Inference:   inferred.Sub(start),
			Postprocess: time.Since(inferred),
		},
	}

	log.WithFields(logrus.Fields{
		"detections":  len(detections),
		"inference":   result.Timings.Inference,
		"postprocess": result.Timings.Postprocess,
	}).Debug("frame processed")

	return result, nil
}

func (p *Pipeline) infer(ctx context.Context, img image.Image) ([]float32, []float32, error) {
	var detOut, depthOut []float32

	if !p.cfg.Parallel {
		var err error
		if detOut, err = p.cfg.Detector.Run(ctx, img); err != nil {
			return nil, nil, errors.Wrap(err, "detector")
		}
		if err = ctx.Err(); err != nil {
			return nil, nil, err
		}
		if depthOut, err = p.cfg.DepthEngine.Run(ctx, img); err != nil {
			return nil, nil, errors.Wrap(err, "depth engine")
		}
		return detOut, depthOut, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := p.cfg.Detector.Run(gctx, img)
		if err != nil {
			return errors.Wrap(err, "detector")
		}
		detOut = out
		return nil
	})
	g.Go(func() error {
		out, err := p.cfg.DepthEngine.Run(gctx, img)
		if err != nil {
			return errors.Wrap(err, "depth engine")
		}
		depthOut = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return detOut, depthOut, nil
}
