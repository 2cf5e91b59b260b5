package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models"
	"github.com/edgekit/go-yolo/models/model"
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

func detectFrame() Frame {
	return Frame{
		Orientation: images.Orientation{OriginalWidth: 640, OriginalHeight: 480},
		Start:       time.Now(),
	}
}

// detectOutput: 2 classes, 3 anchors, one anchor passing as class 0 at 0.9.
func detectOutput(t *testing.T) *tensor.Dense {
	return plane(t, [][]float32{
		{0.2, 0.5, 0.8},
		{0.2, 0.5, 0.8},
		{0.1, 0.2, 0.1},
		{0.1, 0.2, 0.1},
		{0.05, 0.9, 0.02},
		{0.01, 0.08, 0.03},
	})
}

func TestPipeline_Detect(t *testing.T) {
	p, err := NewPipeline(Args{
		Decoder: models.Config{Task: model.TaskDetect, NumClasses: 2},
		Labels:  model.Labels{"cat", "dog"},
	})
	require.NoError(t, err)

	result, err := p.Process([]*tensor.Dense{detectOutput(t)}, detectFrame())
	require.NoError(t, err)
	require.Len(t, result.Boxes, 1)

	d := result.Boxes[0]
	assert.Equal(t, 0, d.Class)
	assert.Equal(t, "cat", d.Label)
	assert.Equal(t, float32(0.9), d.Score)

	// Normalized form retained, pixel form scaled by the frame size.
	assert.InDelta(t, 0.4, d.BoxN.X1, 1e-5)
	assert.InDelta(t, 0.4*640, d.Box.X1, 1e-3)
	assert.InDelta(t, 0.4*480, d.Box.Y1, 1e-3)

	assert.Equal(t, 640, result.OriginalWidth)
	assert.Equal(t, 480, result.OriginalHeight)
	assert.Equal(t, model.TaskDetect, result.Task)
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, 0.0)
}

func TestPipeline_Detect_EmptyFrameIsNotAnError(t *testing.T) {
	p, err := NewPipeline(Args{Decoder: models.Config{Task: model.TaskDetect, NumClasses: 2}})
	require.NoError(t, err)

	out := plane(t, [][]float32{{0.5}, {0.5}, {0.1}, {0.1}, {0.1}, {0.1}})
	result, err := p.Process([]*tensor.Dense{out}, detectFrame())
	require.NoError(t, err)
	assert.Empty(t, result.Boxes)
}

func TestPipeline_ConfidenceMonotonic(t *testing.T) {
	// Raising the confidence threshold never increases survivors.
	p, err := NewPipeline(Args{Decoder: models.Config{Task: model.TaskDetect, NumClasses: 2}})
	require.NoError(t, err)

	prev := int(^uint(0) >> 1)
	for _, conf := range []float32{0.05, 0.25, 0.5, 0.95} {
		p.Settings().Update(Thresholds{Confidence: conf, IoU: 0.4, MaxDetections: 30})
		result, err := p.Process([]*tensor.Dense{detectOutput(t)}, detectFrame())
		require.NoError(t, err)
		assert.LessOrEqual(t, len(result.Boxes), prev, "confidence %v", conf)
		prev = len(result.Boxes)
	}
}

func TestPipeline_DecodeErrorIsFatalForCallOnly(t *testing.T) {
	p, err := NewPipeline(Args{Decoder: models.Config{Task: model.TaskDetect, NumClasses: 5}})
	require.NoError(t, err)

	_, err = p.Process([]*tensor.Dense{detectOutput(t)}, detectFrame())
	assert.True(t, errors.Is(err, postprocess.ErrShapeMismatch))

	// The pipeline keeps working for the next, well-formed frame.
	p2, err := NewPipeline(Args{Decoder: models.Config{Task: model.TaskDetect, NumClasses: 2}})
	require.NoError(t, err)
	_, err = p2.Process([]*tensor.Dense{detectOutput(t)}, detectFrame())
	assert.NoError(t, err)
}

func TestPipeline_Segment(t *testing.T) {
	out := plane(t, [][]float32{
		{0.5}, {0.5}, {0.2}, {0.2},
		{0.9},        // class 0
		{1.0}, {2.0}, // mask coefficients
	})
	protoBacking := make([]float32, 4*4*2)
	for i := range protoBacking {
		protoBacking[i] = 0.5
	}
	proto := tensor.New(tensor.WithShape(1, 4, 4, 2), tensor.WithBacking(protoBacking))

	p, err := NewPipeline(Args{
		Decoder: models.Config{Task: model.TaskSegment, NumClasses: 1, MaskChannels: 2},
		Labels:  model.Labels{"person"},
	})
	require.NoError(t, err)

	result, err := p.Process([]*tensor.Dense{out, proto}, detectFrame())
	require.NoError(t, err)
	require.Len(t, result.Boxes, 1)
	require.NotNil(t, result.Masks)
	assert.Len(t, result.Masks.Probability, 1)
	assert.InDelta(t, 1.5, result.Masks.Probability[0][2][2], 1e-5)
}

func TestPipeline_Segment_MissingPrototype(t *testing.T) {
	out := plane(t, [][]float32{{0.5}, {0.5}, {0.2}, {0.2}, {0.9}, {1.0}, {2.0}})
	p, err := NewPipeline(Args{Decoder: models.Config{Task: model.TaskSegment, NumClasses: 1, MaskChannels: 2}})
	require.NoError(t, err)

	_, err = p.Process([]*tensor.Dense{out}, detectFrame())
	assert.True(t, errors.Is(err, postprocess.ErrMissingPrototype))
}

func TestPipeline_Pose(t *testing.T) {
	out := plane(t, [][]float32{
		{0.5}, {0.5}, {0.4}, {0.6},
		{0.85},
		{0.45}, {0.30}, {0.95},
		{0.55}, {0.70}, {0.20},
	})
	p, err := NewPipeline(Args{
		Decoder: models.Config{Task: model.TaskPose, KeypointCount: 2},
		Labels:  model.Labels{"person"},
	})
	require.NoError(t, err)

	frame := Frame{
		Orientation: images.Orientation{OriginalWidth: 1000, OriginalHeight: 500},
		Start:       time.Now(),
	}
	result, err := p.Process([]*tensor.Dense{out}, frame)
	require.NoError(t, err)
	require.Len(t, result.Poses, 1)

	pose := result.Poses[0]
	assert.Equal(t, "person", pose.Label)
	require.Len(t, pose.Keypoints, 2)
	assert.InDelta(t, 450, pose.Keypoints[0].X, 1e-2) // 0.45 * 1000
	assert.InDelta(t, 150, pose.Keypoints[0].Y, 1e-2) // 0.30 * 500
	assert.InDelta(t, 0.45, pose.KeypointsN[0].X, 1e-5)
	assert.Equal(t, float32(0.95), pose.Keypoints[0].Conf)
}

func TestPipeline_OBB(t *testing.T) {
	out := plane(t, [][]float32{
		{0.5}, {0.5}, {0.4}, {0.2},
		{0.8},
		{0.7}, // angle
	})
	p, err := NewPipeline(Args{
		Decoder: models.Config{Task: model.TaskOBB, NumClasses: 1},
		Labels:  model.Labels{"plane"},
	})
	require.NoError(t, err)

	frame := Frame{
		Orientation: images.Orientation{OriginalWidth: 800, OriginalHeight: 800},
		Start:       time.Now(),
	}
	result, err := p.Process([]*tensor.Dense{out}, frame)
	require.NoError(t, err)
	require.Len(t, result.Oriented, 1)

	o := result.Oriented[0]
	assert.Equal(t, "plane", o.Label)
	assert.InDelta(t, 400, o.Box.CX, 1e-3)
	assert.InDelta(t, 0.7, o.Box.Angle, 1e-5)
	assert.InDelta(t, 0.5, o.BoxN.CX, 1e-5)
}

func TestPipeline_Classify(t *testing.T) {
	scores := tensor.New(tensor.WithShape(1, 3), tensor.WithBacking([]float32{0.1, 0.7, 0.2}))
	p, err := NewPipeline(Args{
		Decoder: models.Config{Task: model.TaskClassify, NumClasses: 3},
		Labels:  model.Labels{"cat", "dog", "bird"},
	})
	require.NoError(t, err)

	result, err := p.Process([]*tensor.Dense{scores}, detectFrame())
	require.NoError(t, err)
	require.NotNil(t, result.Classification)
	assert.Equal(t, "dog", result.Classification.Top1.Label)
	assert.Equal(t, float32(0.7), result.Classification.Top1.Score)
}

func TestPipeline_FPSAcrossFrames(t *testing.T) {
	p, err := NewPipeline(Args{Decoder: models.Config{Task: model.TaskDetect, NumClasses: 2}})
	require.NoError(t, err)

	start := time.Now()
	frame := Frame{
		Orientation: images.Orientation{OriginalWidth: 640, OriginalHeight: 480},
		Start:       start,
		PreviousEnd: start.Add(-100 * time.Millisecond), // 10 fps spacing
	}
	result, err := p.Process([]*tensor.Dense{detectOutput(t)}, frame)
	require.NoError(t, err)
	assert.InDelta(t, 10.0*0.05, result.FPS, 1e-6)
}
