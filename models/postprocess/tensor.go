// Package postprocess - Raw output tensor access.
package postprocess

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// squeeze drops leading batch dimensions of size 1 from a shape.
func squeeze(shape tensor.Shape) tensor.Shape {
	for len(shape) > 1 && shape[0] == 1 {
		shape = shape[1:]
	}
	return shape
}

func backing(t *tensor.Dense) ([]float32, error) {
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrShapeMismatch, "output tensor holds %T, want []float32", t.Data())
	}
	return data, nil
}

// Plane validates a dense output as a 2-D [channels, anchors] plane
// (leading batch dimensions of size 1 are tolerated) and returns its
// dimensions and row-major backing slice.
//
// Arguments:
//   - t: The raw output tensor.
//
// Returns:
//   - channels, anchors: The plane dimensions.
//   - data: The backing slice; element (c, i) is data[c*anchors+i].
//   - error: ErrShapeMismatch when the tensor is nil, not float32, or
//     not 2-D after squeezing.
func Plane(t *tensor.Dense) (channels, anchors int, data []float32, err error) {
	if t == nil {
		return 0, 0, nil, errors.Wrap(ErrShapeMismatch, "nil output tensor")
	}
	shape := squeeze(t.Shape())
	if len(shape) != 2 {
		return 0, 0, nil, errors.Wrapf(ErrShapeMismatch, "want [channels, anchors], got %v", t.Shape())
	}
	data, err = backing(t)
	if err != nil {
		return 0, 0, nil, err
	}
	return shape[0], shape[1], data, nil
}

// Vector validates a dense output as a flat score vector and returns its
// backing slice. Used by the classification decoder.
func Vector(t *tensor.Dense) ([]float32, error) {
	if t == nil {
		return nil, errors.Wrap(ErrShapeMismatch, "nil output tensor")
	}
	shape := squeeze(t.Shape())
	if len(shape) != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "want [numClasses], got %v", t.Shape())
	}
	return backing(t)
}
