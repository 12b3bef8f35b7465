package inference

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// InitializeEnvironment loads the onnxruntime shared library once per process.
func InitializeEnvironment(libPath string) error {
	envOnce.Do(func() {
		if _, err := os.Stat(libPath); err != nil {
			envErr = errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
			return
		}

		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = errors.Wrap(err, "error initializing ORT environment")
			return
		}

		logrus.WithField("library", libPath).Debug("onnxruntime environment initialized")
	})
	return envErr
}

// Session represents a model session from the onnxruntime with its
// preallocated input and output tensors.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string
	// InputName and OutputName are the graph node names.
	InputName  string
	OutputName string
	// InputShape and OutputShape size the preallocated tensors.
	InputShape  []int64
	OutputShape []int64
	// Backend selects the execution provider.
	Backend Backend
	// Threads is the intra-op thread count. Zero lets onnxruntime decide.
	Threads int
}

// NewSession creates a new ONNX Runtime session with preallocated input and
// output tensors bound to it. InitializeEnvironment must have succeeded.
//
// Arguments:
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(args NewSessionArgs) (*Session, error) {
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := sessionOptions(args)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		[]string{args.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(err, "error creating ORT session for %s", args.ModelPath)
	}

	return &Session{Session: session, Input: input, Output: output}, nil
}

func sessionOptions(args NewSessionArgs) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	if err := options.SetIntraOpNumThreads(args.Threads); err != nil {
		options.Destroy()
		return nil, errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		options.Destroy()
		return nil, errors.Wrap(err, "error setting graph optimization level")
	}

	switch args.Backend {
	case BackendCoreML:
		err = options.AppendExecutionProviderCoreML(0)
	case BackendOpenVINO:
		err = options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_type": "CPU",
			"precision":   "FP32",
		})
	case BackendCUDA:
		err = appendCUDA(options)
	}
	if err != nil {
		options.Destroy()
		return nil, errors.Wrapf(err, "error enabling %s", args.Backend)
	}

	return options, nil
}

func appendCUDA(options *ort.SessionOptions) error {
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cuda.Destroy()
	return options.AppendExecutionProviderCUDA(cuda)
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	if s.Input != nil {
		s.Input.Destroy()
		s.Input = nil
	}
	if s.Output != nil {
		s.Output.Destroy()
		s.Output = nil
	}
	if s.Session != nil {
		err := s.Session.Destroy()
		s.Session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}
