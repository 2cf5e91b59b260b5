// Package inference - Inference sessions.
package inference

import (
	"context"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// Backend selects the execution provider for a session. CPU is always
// available; the accelerated backends require a matching onnxruntime
// build.
type Backend string

const (
	BackendCPU    Backend = "cpu"
	BackendCUDA   Backend = "cuda"
	BackendCoreML Backend = "coreml"
)

// Config describes one model session.
type Config struct {
	// ModelPath is the ONNX model file.
	ModelPath string `yaml:"model_path" json:"model_path"`
	// InputName and OutputNames are the model's graph node names. YOLO
	// exports use "images" and "output0" (plus "output1" for Segment).
	InputName   string   `yaml:"input_name" json:"input_name"`
	OutputNames []string `yaml:"output_names" json:"output_names"`
	// InputWidth and InputHeight are the model input dimensions.
	InputWidth  int `yaml:"input_width" json:"input_width"`
	InputHeight int `yaml:"input_height" json:"input_height"`
	// Backend selects the execution provider; empty means CPU.
	Backend Backend `yaml:"backend" json:"backend"`
}

func (c *Config) applyDefaults() {
	if c.InputName == "" {
		c.InputName = "images"
	}
	if len(c.OutputNames) == 0 {
		c.OutputNames = []string{"output0"}
	}
	if c.InputWidth == 0 {
		c.InputWidth = 640
	}
	if c.InputHeight == 0 {
		c.InputHeight = 640
	}
	if c.Backend == "" {
		c.Backend = BackendCPU
	}
}

// Session runs one loaded model. Output shapes are taken from the model
// at run time, so the same wrapper serves every task head.
//
// A Session owns native resources; Close must be called when done. Run
// is not safe for concurrent use.
type Session struct {
	cfg     Config
	session *ort.DynamicAdvancedSession
	input   *ort.Tensor[float32]
}

// NewSession loads the model and prepares the input tensor.
//
// Arguments:
//   - cfg: Model path, node names and input geometry.
//
// Returns:
//   - *Session: The runnable session.
//   - error: Library, model-load or provider setup errors.
func NewSession(cfg Config) (*Session, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(0)
	options.SetInterOpNumThreads(0)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	switch cfg.Backend {
	case BackendCUDA:
		cuda, cerr := ort.NewCUDAProviderOptions()
		if cerr != nil {
			return nil, errors.Wrap(cerr, "creating CUDA provider options")
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return nil, errors.Wrap(err, "enabling CUDA")
		}
	case BackendCoreML:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return nil, errors.Wrap(err, "enabling CoreML")
		}
	}

	input, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth)))
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		cfg.OutputNames,
		options,
	)
	if err != nil {
		input.Destroy()
		return nil, errors.Wrapf(err, "loading model %s", cfg.ModelPath)
	}

	return &Session{cfg: cfg, session: session, input: input}, nil
}

// InputSize returns the model input width and height.
func (s *Session) InputSize() (width, height int) {
	return s.cfg.InputWidth, s.cfg.InputHeight
}

// Run executes the model on one preprocessed frame.
//
// The pixels slice must hold the planar RGB layout PrepareInput
// produces, exactly 3*height*width values. Outputs are copied into
// dense tensors so native buffers can be released before the caller
// decodes.
//
// Arguments:
//   - ctx: Cancellation checked before the native call.
//   - pixels: Planar RGB float32 input, normalized to [0,1].
//
// Returns:
//   - []*tensor.Dense: One tensor per configured output, model order.
//   - error: Context or native execution errors.
func (s *Session) Run(ctx context.Context, pixels []float32) ([]*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := s.input.GetData()
	if len(pixels) != len(buf) {
		return nil, errors.Errorf("input holds %d floats, session expects %d", len(pixels), len(buf))
	}
	copy(buf, pixels)

	outputs := make([]ort.Value, len(s.cfg.OutputNames))
	if err := s.session.Run([]ort.Value{s.input}, outputs); err != nil {
		return nil, errors.Wrap(err, "running session")
	}

	results := make([]*tensor.Dense, len(outputs))
	for i, out := range outputs {
		t, ok := out.(*ort.Tensor[float32])
		if !ok {
			out.Destroy()
			return nil, errors.Errorf("output %s is %T, want float32 tensor", s.cfg.OutputNames[i], out)
		}
		shape := t.GetShape()
		dims := make([]int, len(shape))
		for d, v := range shape {
			dims[d] = int(v)
		}
		data := make([]float32, len(t.GetData()))
		copy(data, t.GetData())
		results[i] = tensor.New(tensor.WithShape(dims...), tensor.WithBacking(data))
		t.Destroy()
	}
	return results, nil
}

// Close releases the native session and tensors.
func (s *Session) Close() error {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return errors.Wrap(err, "destroying session")
		}
		s.session = nil
	}
	return nil
}
