// Package obb - Candidate decoding for oriented bounding box outputs.
package obb

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
)

// Decoder reads a raw OBB head output, laid out as
// [4+NumClasses+1, numAnchors]: channels 0-3 are {cx, cy, w, h}, then
// per-class scores, then one trailing rotation angle channel in radians.
type Decoder struct {
	NumClasses int
}

// Task reports the task this decoder handles.
func (d *Decoder) Task() model.Task { return model.TaskOBB }

// Decode scans every anchor column for its best class score and emits an
// oriented candidate for each anchor at or above the confidence
// threshold. The candidate's axis-aligned Box is the bounding rectangle
// of the rotated polygon, which downstream suppression uses as a cheap
// pre-check before polygon clipping.
//
// Arguments:
//   - outputs: Exactly one [4+NumClasses+1, numAnchors] tensor.
//   - confThreshold: Minimum winning class score.
//
// Returns:
//   - Unfiltered oriented candidates in normalized model-input space.
//   - ErrShapeMismatch when the tensor layout does not match.
func (d *Decoder) Decode(outputs []*tensor.Dense, confThreshold float32) ([]postprocess.Candidate, error) {
	if len(outputs) < 1 {
		return nil, errors.Wrap(postprocess.ErrShapeMismatch, "obb: no output tensor")
	}
	channels, anchors, data, err := postprocess.Plane(outputs[0])
	if err != nil {
		return nil, err
	}
	if channels != 4+d.NumClasses+1 {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch,
			"obb: got %d channels, want %d (4+%d classes+angle)", channels, 4+d.NumClasses+1, d.NumClasses)
	}

	angleChannel := 4 + d.NumClasses
	candidates := make([]postprocess.Candidate, 0, 64)
	for i := 0; i < anchors; i++ {
		class, score := postprocess.BestClass(data, anchors, i, 4, d.NumClasses)
		if !postprocess.PassesThreshold(score, confThreshold) {
			continue
		}
		oriented := &images.OrientedRect{
			CX:    data[i],
			CY:    data[anchors+i],
			W:     data[2*anchors+i],
			H:     data[3*anchors+i],
			Angle: data[angleChannel*anchors+i],
		}
		candidates = append(candidates, postprocess.Candidate{
			Box:      oriented.Bounding(),
			Oriented: oriented,
			Score:    score,
			Class:    class,
		})
	}
	return candidates, nil
}
