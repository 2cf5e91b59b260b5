// Package pose - Candidate decoding for single-class keypoint outputs.
package pose

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
)

// Decoder reads a raw pose head output, laid out as
// [4+1+KeypointCount*3, numAnchors]: channels 0-3 are {cx, cy, w, h},
// channel 4 is the single-class score, and each keypoint contributes an
// (x, y, conf) triple starting at channel 5.
//
// Pose models detect one subject type, so suppression downstream runs
// class-blind.
type Decoder struct {
	KeypointCount int
}

// Task reports the task this decoder handles.
func (d *Decoder) Task() model.Task { return model.TaskPose }

// Decode emits one candidate per anchor whose subject score passes the
// confidence threshold, each carrying its ordered keypoint set in
// normalized model-input space. Keypoint index order carries the
// skeletal semantics (COCO order for the shipped skeleton); this decoder
// does not interpret it.
//
// Arguments:
//   - outputs: Exactly one [4+1+KeypointCount*3, numAnchors] tensor.
//   - confThreshold: Minimum subject score.
//
// Returns:
//   - Unfiltered candidates; empty when no anchor passes.
//   - ErrShapeMismatch when the tensor layout does not match.
func (d *Decoder) Decode(outputs []*tensor.Dense, confThreshold float32) ([]postprocess.Candidate, error) {
	if len(outputs) < 1 {
		return nil, errors.Wrap(postprocess.ErrShapeMismatch, "pose: no output tensor")
	}
	channels, anchors, data, err := postprocess.Plane(outputs[0])
	if err != nil {
		return nil, err
	}
	want := 4 + 1 + d.KeypointCount*3
	if channels != want {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch,
			"pose: got %d channels, want %d (4+1+%d keypoints*3)", channels, want, d.KeypointCount)
	}

	candidates := make([]postprocess.Candidate, 0, 16)
	for i := 0; i < anchors; i++ {
		score := data[4*anchors+i]
		if !postprocess.PassesThreshold(score, confThreshold) {
			continue
		}

		keypoints := make([]postprocess.Keypoint, d.KeypointCount)
		for k := 0; k < d.KeypointCount; k++ {
			base := 5 + k*3
			keypoints[k] = postprocess.Keypoint{
				X:    data[base*anchors+i],
				Y:    data[(base+1)*anchors+i],
				Conf: data[(base+2)*anchors+i],
			}
		}

		cx := data[i]
		cy := data[anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]
		candidates = append(candidates, postprocess.Candidate{
			Box:       images.RectFromCenter(cx, cy, w, h),
			Score:     score,
			Class:     0,
			Keypoints: keypoints,
		})
	}
	return candidates, nil
}
