package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/models/postprocess"
)

func plane(t *testing.T, rows [][]float32) *tensor.Dense {
	t.Helper()
	channels := len(rows)
	anchors := len(rows[0])
	backing := make([]float32, 0, channels*anchors)
	for _, row := range rows {
		require.Len(t, row, anchors)
		backing = append(backing, row...)
	}
	return tensor.New(tensor.WithShape(1, channels, anchors), tensor.WithBacking(backing))
}

// protoTensor builds a [1, h, w, c] prototype with all values set to v.
func protoTensor(h, w, c int, v float32) *tensor.Dense {
	backing := make([]float32, h*w*c)
	for i := range backing {
		backing[i] = v
	}
	return tensor.New(tensor.WithShape(1, h, w, c), tensor.WithBacking(backing))
}

func TestDecode_SlicesMaskCoefficients(t *testing.T) {
	// 1 class, 2 mask channels, 2 anchors; anchor 0 passes.
	out := plane(t, [][]float32{
		{0.5, 0.2}, // cx
		{0.5, 0.2}, // cy
		{0.2, 0.1}, // w
		{0.2, 0.1}, // h
		{0.9, 0.1}, // class 0
		{0.7, 0.0}, // coeff 0
		{-0.3, 0.0}, // coeff 1
	})
	proto := protoTensor(4, 4, 2, 0)

	d := &Decoder{NumClasses: 1, MaskChannels: 2}
	candidates, err := d.Decode([]*tensor.Dense{out, proto}, 0.25)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []float32{0.7, -0.3}, candidates[0].MaskCoeffs)
	assert.Equal(t, float32(0.9), candidates[0].Score)
}

func TestDecode_MissingPrototypeIsFatal(t *testing.T) {
	out := plane(t, [][]float32{{0.5}, {0.5}, {0.2}, {0.2}, {0.9}, {0.1}, {0.2}})
	d := &Decoder{NumClasses: 1, MaskChannels: 2}

	_, err := d.Decode([]*tensor.Dense{out}, 0.25)
	assert.True(t, errors.Is(err, postprocess.ErrMissingPrototype))

	_, err = d.Decode([]*tensor.Dense{out, nil}, 0.25)
	assert.True(t, errors.Is(err, postprocess.ErrMissingPrototype))
}

func TestDecode_ShapeMismatch(t *testing.T) {
	out := plane(t, [][]float32{{0.5}, {0.5}, {0.2}, {0.2}, {0.9}})
	proto := protoTensor(4, 4, 2, 0)
	d := &Decoder{NumClasses: 1, MaskChannels: 2} // wants 7 channels
	_, err := d.Decode([]*tensor.Dense{out, proto}, 0.25)
	assert.True(t, errors.Is(err, postprocess.ErrShapeMismatch))
}
