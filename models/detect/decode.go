// Package detect - Candidate decoding for axis-aligned detection outputs.
package detect

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
)

// Decoder reads a raw detect head output, laid out as
// [4+NumClasses, numAnchors]: channels 0-3 are {cx, cy, w, h}, the rest
// are per-class scores.
type Decoder struct {
	NumClasses int
}

// Task reports the task this decoder handles.
func (d *Decoder) Task() model.Task { return model.TaskDetect }

// Decode scans every anchor column for its best class score and emits a
// candidate for each anchor at or above the confidence threshold, in
// normalized model-input space.
//
// Arguments:
//   - outputs: Exactly one [4+NumClasses, numAnchors] tensor.
//   - confThreshold: Minimum winning class score.
//
// Returns:
//   - Unfiltered candidates; empty when no anchor passes, which is not
//     an error. NaN and negative scores never pass the threshold.
//   - ErrShapeMismatch when the tensor layout does not match.
func (d *Decoder) Decode(outputs []*tensor.Dense, confThreshold float32) ([]postprocess.Candidate, error) {
	if len(outputs) < 1 {
		return nil, errors.Wrap(postprocess.ErrShapeMismatch, "detect: no output tensor")
	}
	channels, anchors, data, err := postprocess.Plane(outputs[0])
	if err != nil {
		return nil, err
	}
	if channels != 4+d.NumClasses {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch,
			"detect: got %d channels, want %d (4+%d classes)", channels, 4+d.NumClasses, d.NumClasses)
	}

	candidates := make([]postprocess.Candidate, 0, 64)
	for i := 0; i < anchors; i++ {
		class, score := postprocess.BestClass(data, anchors, i, 4, d.NumClasses)
		if !postprocess.PassesThreshold(score, confThreshold) {
			continue
		}
		cx := data[i]
		cy := data[anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]
		candidates = append(candidates, postprocess.Candidate{
			Box:   images.RectFromCenter(cx, cy, w, h),
			Score: score,
			Class: class,
		})
	}
	return candidates, nil
}
