package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nvr-ai/go-proximity/config"
	"github.com/nvr-ai/go-proximity/controller"
	"github.com/nvr-ai/go-proximity/inference"
	"github.com/nvr-ai/go-proximity/models"
	"github.com/nvr-ai/go-proximity/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "proximity",
		Short:         "Rank detected objects by distance from the camera",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newCameraCmd(opts),
		newImageCmd(opts),
		newReplayCmd(opts),
	)
	return root
}

func (o *options) load() error {
	o.cfg = config.Default()
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		o.cfg = cfg
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}

	level, err := o.cfg.Level()
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// app is a pipeline together with the engines it owns.
type app struct {
	pipeline *controller.Pipeline
	engines  []*inference.ONNXEngine
}

func (r *app) Close() {
	for _, e := range r.engines {
		if err := e.Close(); err != nil {
			logrus.WithError(err).Warn("closing engine")
		}
	}
}

// newApp builds the models, the two ONNX engines and the pipeline.
func newApp(cfg config.Config) (*app, error) {
	lib := cfg.Library
	if lib == "" {
		var err error
		if lib, err = inference.GetSharedLibPath(os.Getenv); err != nil {
			return nil, err
		}
	}
	if err := inference.InitializeEnvironment(lib); err != nil {
		return nil, err
	}

	labels := models.YOLOClasses
	if cfg.Detector.Labels != "" {
		var err error
		if labels, err = models.LoadLabels(cfg.Detector.Labels); err != nil {
			return nil, err
		}
	}

	decoder, err := models.NewDecoder(cfg.Detector.Args(labels))
	if err != nil {
		return nil, errors.Wrap(err, "detector")
	}
	estimator, err := models.NewEstimator(cfg.Depth.Args(nil))
	if err != nil {
		return nil, errors.Wrap(err, "depth model")
	}

	rt := &app{}
	detector, err := inference.NewONNXEngine(decoder.Options(), cfg.Detector.Engine)
	if err != nil {
		return nil, errors.Wrap(err, "detector engine")
	}
	rt.engines = append(rt.engines, detector)

	depth, err := inference.NewONNXEngine(estimator.Options(), cfg.Depth.Engine)
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "depth engine")
	}
	rt.engines = append(rt.engines, depth)

	rt.pipeline, err = controller.NewPipeline(controller.Config{
		Decoder:     decoder,
		Estimator:   estimator,
		Detector:    detector,
		DepthEngine: depth,
		NMS:         cfg.NMS,
		Fusion:      cfg.Fusion,
		Parallel:    cfg.Parallel,
		Log:         logrus.WithField("app", "proximity"),
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	return rt, nil
}

// printResult writes the ranked detections of a frame.
func printResult(w io.Writer, res *controller.Result) {
	fmt.Fprintf(w, "frame %d (%dx%d): %d objects, inference %s, postprocess %s\n",
		res.FrameID, res.Size.X, res.Size.Y, len(res.Detections),
		res.Timings.Inference, res.Timings.Postprocess)
	for rank, d := range res.Detections {
		fmt.Fprintf(w, "  %2d. %s\n", rank+1, detectionLine(d))
	}
}

func detectionLine(d postprocess.Detection) string {
	return fmt.Sprintf("%-14s conf=%.2f depth=%.3f box=%s", d.Label, d.Confidence, d.Depth, d.Box)
}
