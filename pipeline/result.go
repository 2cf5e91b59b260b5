// Package pipeline - Task-tagged inference results.
package pipeline

import (
	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models/classify"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
	"github.com/edgekit/go-yolo/models/segment"
)

// Metadata is attached to every result regardless of task.
type Metadata struct {
	OriginalWidth    int
	OriginalHeight   int
	ProcessingTimeMs float64
	// FPS is the smoothed frame rate; see FPSMeter.
	FPS float64
}

// Detection is one surviving axis-aligned detection, carried in both
// coordinate spaces since both are externally consumed.
type Detection struct {
	// Box is in original-image pixels.
	Box images.Rect
	// BoxN is the same box in normalized model-input space.
	BoxN  images.Rect
	Score float32
	Class int
	Label string
}

// OrientedDetection is one surviving rotated detection.
type OrientedDetection struct {
	Box   images.OrientedRect // original-image pixels
	BoxN  images.OrientedRect // normalized model-input space
	Score float32
	Class int
	Label string
}

// PoseDetection is one surviving subject with its keypoint set.
type PoseDetection struct {
	Detection
	// Keypoints are in original-image pixels, KeypointsN in normalized
	// model-input space; both in model keypoint order.
	Keypoints  []postprocess.Keypoint
	KeypointsN []postprocess.Keypoint
}

// Result is the immutable output of one inference call. Only the fields
// of the tagged task are populated; the rest stay zero.
type Result struct {
	Task model.Task
	Metadata

	// Boxes is populated for Detect and Segment.
	Boxes []Detection
	// Masks is populated for Segment; nil when nothing was detected.
	Masks *segment.Masks
	// Poses is populated for Pose.
	Poses []PoseDetection
	// Oriented is populated for OBB.
	Oriented []OrientedDetection
	// Classification is populated for Classify.
	Classification *classify.Ranking
}
