// Package inference - ONNX Runtime session boundary. Everything above this
// package sees raw output tensors only; model internals stay opaque.
package inference

import (
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// SharedLibraryEnv overrides the bundled onnxruntime library path.
const SharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	initOnce sync.Once
	initErr  error
)

// sharedLibraryPath resolves the native onnxruntime library for the
// current platform, honoring the environment override.
func sharedLibraryPath() string {
	if path := os.Getenv(SharedLibraryEnv); path != "" {
		return path
	}
	switch runtime.GOOS {
	case "windows":
		return "third_party/onnxruntime.dll"
	case "darwin":
		return "third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.so"
		}
		return "third_party/onnxruntime.so"
	}
}

// Initialize loads the native onnxruntime library and prepares the
// process-wide environment. Safe to call more than once; every Session
// calls it before creating native state.
func Initialize() error {
	initOnce.Do(func() {
		libPath := sharedLibraryPath()
		if _, err := os.Stat(libPath); err != nil {
			initErr = errors.Wrapf(err, "onnxruntime library not found at %s (set %s to override)", libPath, SharedLibraryEnv)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = errors.Wrap(err, "initializing onnxruntime environment")
		}
	})
	return initErr
}
