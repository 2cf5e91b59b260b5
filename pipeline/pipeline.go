// Package pipeline - Synchronous decode/suppress/map pipeline turning raw
// model output tensors into task-tagged results.
package pipeline

import (
	"time"

	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models"
	"github.com/edgekit/go-yolo/models/classify"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
	"github.com/edgekit/go-yolo/models/segment"
)

// Args configures a Pipeline.
type Args struct {
	// Decoder selects and parameterizes the task decoder.
	Decoder models.Config
	// Labels maps class indices to names; missing entries fall back to
	// the Unknown sentinel.
	Labels model.Labels
	// Settings holds the live thresholds; nil gets task defaults.
	Settings *Settings
	// Logger for structured diagnostics; nil disables logging.
	Logger *zap.Logger
}

// Frame describes one inference call's frame, supplied by the capture
// collaborator.
type Frame struct {
	// Orientation carries the original frame size and the rotation
	// applied before inference.
	Orientation images.Orientation
	// Start is the start-of-call timestamp.
	Start time.Time
	// PreviousEnd is when the previous call finished; zero for the
	// first frame. Start-PreviousEnd feeds the FPS average.
	PreviousEnd time.Time
}

// Pipeline runs the postprocessing chain for one task: decode raw
// tensors into candidates, suppress overlaps, assemble masks (Segment),
// map coordinates to the original frame and aggregate the result.
//
// Process is synchronous and runs to completion; a Pipeline is meant to
// be fed serially by one frame producer. Thresholds may be updated from
// other goroutines at any time through Settings.
type Pipeline struct {
	task     model.Task
	decoder  models.Decoder
	labels   model.Labels
	settings *Settings
	log      *zap.SugaredLogger
	meter    FPSMeter
}

// NewPipeline builds the pipeline for one task.
func NewPipeline(args Args) (*Pipeline, error) {
	decoder, err := models.NewDecoder(args.Decoder)
	if err != nil {
		return nil, err
	}
	settings := args.Settings
	if settings == nil {
		settings = NewSettings(DefaultThresholds(args.Decoder.Task))
	}
	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		task:     decoder.Task(),
		decoder:  decoder,
		labels:   args.Labels,
		settings: settings,
		log:      logger.Sugar(),
	}, nil
}

// Task reports which task this pipeline decodes.
func (p *Pipeline) Task() model.Task { return p.task }

// Settings exposes the live thresholds for external updates.
func (p *Pipeline) Settings() *Settings { return p.settings }

// Process turns one call's raw output tensors into a Result.
//
// Thresholds are snapshotted once at entry, so concurrent updates never
// tear a pass. A decode error (shape mismatch, missing prototype) is
// fatal for this call only: it surfaces synchronously and the pipeline
// stays usable for the next frame.
//
// Arguments:
//   - outputs: The task's raw output tensors (primary plane first;
//     Segment adds the prototype tensor second).
//   - frame: Original frame geometry and call timestamps.
//
// Returns:
//   - *Result: The immutable, self-contained result for this call.
//   - error: Typed decode errors; empty frames are not errors.
func (p *Pipeline) Process(outputs []*tensor.Dense, frame Frame) (*Result, error) {
	th := p.settings.Snapshot()

	candidates, err := p.decoder.Decode(outputs, th.Confidence)
	if err != nil {
		p.log.Warnw("decode failed", "task", p.task, "error", err)
		return nil, err
	}

	result := &Result{Task: p.task}

	if p.task == model.TaskClassify {
		result.Classification = classify.Rank(candidates, p.labels)
	} else {
		kept := postprocess.ApplyNMS(candidates, &postprocess.NMSConfig{
			IoUThreshold:  th.IoU,
			ClassAware:    p.task != model.TaskPose,
			MaxDetections: th.MaxDetections,
		})
		p.log.Debugw("suppression done",
			"task", p.task, "candidates", len(candidates), "kept", len(kept))

		if p.task == model.TaskSegment {
			proto, perr := prototypeOf(outputs)
			if perr != nil {
				return nil, perr
			}
			masks, merr := segment.AssembleMasks(kept, proto, th.MaskThreshold)
			if merr != nil {
				return nil, merr
			}
			result.Masks = masks
		}

		p.mapCandidates(result, kept, frame.Orientation)
	}

	p.finish(result, frame)
	return result, nil
}

// prototypeOf extracts the Segment prototype from the output pair. The
// decoder already rejected a missing second tensor, so this only
// revalidates the shape.
func prototypeOf(outputs []*tensor.Dense) (*segment.Prototype, error) {
	if len(outputs) < 2 {
		return nil, postprocess.ErrMissingPrototype
	}
	return segment.NewPrototype(outputs[1])
}

// mapCandidates converts surviving candidates from normalized space to
// original-image pixels and attaches labels. This is the single, logged
// space conversion; everything upstream is normalized, everything in the
// result carries both forms.
func (p *Pipeline) mapCandidates(result *Result, kept []postprocess.Candidate, orientation images.Orientation) {
	mapper := images.NewMapper(orientation)
	p.log.Debugw("mapping to pixel space",
		"width", orientation.OriginalWidth,
		"height", orientation.OriginalHeight,
		"rotation", orientation.Rotation,
		"count", len(kept))

	switch p.task {
	case model.TaskOBB:
		result.Oriented = make([]OrientedDetection, 0, len(kept))
		for _, c := range kept {
			result.Oriented = append(result.Oriented, OrientedDetection{
				Box:   mapper.OrientedToPixels(*c.Oriented),
				BoxN:  *c.Oriented,
				Score: c.Score,
				Class: c.Class,
				Label: p.labels.Name(c.Class),
			})
		}
	case model.TaskPose:
		result.Poses = make([]PoseDetection, 0, len(kept))
		for _, c := range kept {
			pose := PoseDetection{
				Detection:  p.mapDetection(mapper, c),
				Keypoints:  make([]postprocess.Keypoint, len(c.Keypoints)),
				KeypointsN: c.Keypoints,
			}
			for i, kp := range c.Keypoints {
				mapped := mapper.PointToPixels(images.Point{X: kp.X, Y: kp.Y})
				pose.Keypoints[i] = postprocess.Keypoint{X: mapped.X, Y: mapped.Y, Conf: kp.Conf}
			}
			result.Poses = append(result.Poses, pose)
		}
	default:
		result.Boxes = make([]Detection, 0, len(kept))
		for _, c := range kept {
			result.Boxes = append(result.Boxes, p.mapDetection(mapper, c))
		}
	}
}

func (p *Pipeline) mapDetection(mapper images.Mapper, c postprocess.Candidate) Detection {
	normalized := c.Box.Clamp01()
	return Detection{
		Box:   mapper.ToPixels(normalized),
		BoxN:  normalized,
		Score: c.Score,
		Class: c.Class,
		Label: p.labels.Name(c.Class),
	}
}

// finish stamps shared metadata onto the result.
func (p *Pipeline) finish(result *Result, frame Frame) {
	result.OriginalWidth = frame.Orientation.OriginalWidth
	result.OriginalHeight = frame.Orientation.OriginalHeight
	if !frame.Start.IsZero() {
		result.ProcessingTimeMs = float64(time.Since(frame.Start).Nanoseconds()) / 1e6
		if !frame.PreviousEnd.IsZero() {
			result.FPS = p.meter.Sample(frame.Start.Sub(frame.PreviousEnd))
		}
	}
}
