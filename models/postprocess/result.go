// Package postprocess - Shared candidate model and Non-Maximum Suppression
// for YOLO task decoders.
package postprocess

import (
	"github.com/pkg/errors"

	"github.com/edgekit/go-yolo/images"
)

// ErrShapeMismatch reports a raw output tensor whose channel layout does
// not match the task's expected layout. Fatal for that decode call.
var ErrShapeMismatch = errors.New("output tensor shape does not match task layout")

// ErrMissingPrototype reports a segmentation decode requested without the
// prototype tensor. Fatal configuration error, surfaced immediately.
var ErrMissingPrototype = errors.New("segment decode requires a mask prototype tensor")

// Keypoint is one skeletal keypoint in the coordinate space of the
// candidate that carries it, with its own confidence.
type Keypoint struct {
	X, Y float32
	Conf float32
}

// Candidate is a single unfiltered detection produced by a task decoder,
// in normalized model-input space. Candidates are never mutated after
// creation; suppression drops losers rather than editing them.
type Candidate struct {
	// Box is the axis-aligned box. For oriented candidates it holds the
	// bounding rectangle of the rotated polygon, used as a cheap
	// intersection pre-check.
	Box images.Rect
	// Oriented is set only for OBB candidates.
	Oriented *images.OrientedRect
	// Score is the winning class score.
	Score float32
	// Class is the winning class index.
	Class int
	// MaskCoeffs are the per-detection prototype coefficients (Segment
	// only); length equals the prototype's channel count.
	MaskCoeffs []float32
	// Keypoints is the ordered keypoint set (Pose only). Index order
	// carries the skeletal semantics; this package does not interpret it.
	Keypoints []Keypoint
}
