// Package segment - Candidate decoding and mask assembly for instance
// segmentation outputs.
package segment

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
)

// Decoder reads a raw segment head output pair: the primary plane laid
// out as [4+NumClasses+MaskChannels, numAnchors], plus a prototype
// tensor [maskH, maskW, MaskChannels] consumed by the mask assembler.
type Decoder struct {
	NumClasses   int
	MaskChannels int
}

// Task reports the task this decoder handles.
func (d *Decoder) Task() model.Task { return model.TaskSegment }

// Decode runs the detect-style box/class scan and additionally slices
// the trailing MaskChannels channels of each passing anchor into that
// candidate's mask coefficients.
//
// Arguments:
//   - outputs: The primary plane followed by the prototype tensor. A
//     missing prototype is a fatal configuration error surfaced here,
//     before any work is done.
//   - confThreshold: Minimum winning class score.
//
// Returns:
//   - Unfiltered candidates in normalized model-input space; empty when
//     no anchor passes.
func (d *Decoder) Decode(outputs []*tensor.Dense, confThreshold float32) ([]postprocess.Candidate, error) {
	if len(outputs) < 1 {
		return nil, errors.Wrap(postprocess.ErrShapeMismatch, "segment: no output tensor")
	}
	if len(outputs) < 2 || outputs[1] == nil {
		return nil, errors.Wrap(postprocess.ErrMissingPrototype, "segment: outputs[1] absent")
	}
	channels, anchors, data, err := postprocess.Plane(outputs[0])
	if err != nil {
		return nil, err
	}
	if channels != 4+d.NumClasses+d.MaskChannels {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch,
			"segment: got %d channels, want %d (4+%d classes+%d mask)",
			channels, 4+d.NumClasses+d.MaskChannels, d.NumClasses, d.MaskChannels)
	}

	coeffBase := 4 + d.NumClasses
	candidates := make([]postprocess.Candidate, 0, 64)
	for i := 0; i < anchors; i++ {
		class, score := postprocess.BestClass(data, anchors, i, 4, d.NumClasses)
		if !postprocess.PassesThreshold(score, confThreshold) {
			continue
		}
		coeffs := make([]float32, d.MaskChannels)
		for c := 0; c < d.MaskChannels; c++ {
			coeffs[c] = data[(coeffBase+c)*anchors+i]
		}
		cx := data[i]
		cy := data[anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]
		candidates = append(candidates, postprocess.Candidate{
			Box:        images.RectFromCenter(cx, cy, w, h),
			Score:      score,
			Class:      class,
			MaskCoeffs: coeffs,
		})
	}
	return candidates, nil
}
