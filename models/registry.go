// Package models - Decoder registry for YOLO task variants.
package models

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/models/classify"
	"github.com/edgekit/go-yolo/models/detect"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/obb"
	"github.com/edgekit/go-yolo/models/pose"
	"github.com/edgekit/go-yolo/models/postprocess"
	"github.com/edgekit/go-yolo/models/segment"
)

// Decoder is the common contract every task variant implements: read
// raw output tensors, emit unfiltered candidates in normalized
// model-input space. Dispatch happens on the Task value at construction
// time rather than through a per-task type hierarchy.
type Decoder interface {
	Task() model.Task
	Decode(outputs []*tensor.Dense, confThreshold float32) ([]postprocess.Candidate, error)
}

// Config selects and parameterizes a task decoder.
type Config struct {
	Task model.Task `json:"task" yaml:"task"`
	// NumClasses is required for detect, segment and obb.
	NumClasses int `json:"num_classes" yaml:"num_classes"`
	// KeypointCount defaults to the COCO 17-keypoint layout.
	KeypointCount int `json:"keypoint_count" yaml:"keypoint_count"`
	// MaskChannels defaults to the usual 32 prototype channels.
	MaskChannels int `json:"mask_channels" yaml:"mask_channels"`
}

// DefaultMaskChannels is the prototype channel count YOLO segmentation
// models ship with.
const DefaultMaskChannels = 32

// NewDecoder creates the decoder for a task. This factory is the single
// entry point for decoder construction, so parameter validation and
// defaulting live in one place.
//
// Arguments:
//   - cfg: Task selection and layout parameters.
//
// Returns:
//   - Decoder: The task's decoder.
//   - error: When the task is unknown or a required parameter is missing.
func NewDecoder(cfg Config) (Decoder, error) {
	switch cfg.Task {
	case model.TaskDetect:
		if cfg.NumClasses <= 0 {
			return nil, errors.New("detect decoder requires NumClasses")
		}
		return &detect.Decoder{NumClasses: cfg.NumClasses}, nil
	case model.TaskSegment:
		if cfg.NumClasses <= 0 {
			return nil, errors.New("segment decoder requires NumClasses")
		}
		maskChannels := cfg.MaskChannels
		if maskChannels <= 0 {
			maskChannels = DefaultMaskChannels
		}
		return &segment.Decoder{NumClasses: cfg.NumClasses, MaskChannels: maskChannels}, nil
	case model.TaskPose:
		keypoints := cfg.KeypointCount
		if keypoints <= 0 {
			keypoints = pose.CocoKeypointCount
		}
		return &pose.Decoder{KeypointCount: keypoints}, nil
	case model.TaskOBB:
		if cfg.NumClasses <= 0 {
			return nil, errors.New("obb decoder requires NumClasses")
		}
		return &obb.Decoder{NumClasses: cfg.NumClasses}, nil
	case model.TaskClassify:
		return &classify.Decoder{NumClasses: cfg.NumClasses}, nil
	default:
		return nil, errors.Errorf("unsupported task: %q", cfg.Task)
	}
}
