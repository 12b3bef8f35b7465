// Package inference - ONNX Runtime engine adapters feeding the proximity pipeline.
package inference

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Backend is the ONNX Runtime execution provider a session runs on.
type Backend string

const (
	// BackendCPU uses the default CPU provider.
	BackendCPU Backend = "cpu"
	// BackendCoreML uses Apple's CoreML provider.
	BackendCoreML Backend = "coreml"
	// BackendOpenVINO uses Intel's OpenVINO provider.
	BackendOpenVINO Backend = "openvino"
	// BackendCUDA uses NVIDIA's CUDA provider.
	BackendCUDA Backend = "cuda"
)

// Backends is a list of all supported backends.
var Backends = []Backend{BackendCPU, BackendCoreML, BackendOpenVINO, BackendCUDA}

// ParseBackend returns the backend named by s. An empty string selects CPU.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if b == "" {
		return BackendCPU, nil
	}
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", errors.Errorf("unknown inference backend %q", s)
}

// GetSharedLibPath returns the path to the onnxruntime shared library for the
// current platform. ONNXRUNTIME_LIB overrides the lookup.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error if the platform is not supported.
func GetSharedLibPath(env func(string) string) (string, error) {
	if env != nil {
		if p := env("ONNXRUNTIME_LIB"); p != "" {
			return p, nil
		}
	}

	switch runtime.GOOS {
	case "windows":
		if runtime.GOARCH == "amd64" {
			return "./third_party/onnxruntime.dll", nil
		}
	case "darwin":
		return "./third_party/libonnxruntime.1.23.0.dylib", nil
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}

	return "", errors.Errorf("no onnxruntime library for %s/%s", runtime.GOOS, runtime.GOARCH)
}
