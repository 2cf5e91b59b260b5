package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/go-yolo/models/model"
)

func TestNewDecoder(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		task    model.Task
		wantErr bool
	}{
		{"detect", Config{Task: model.TaskDetect, NumClasses: 80}, model.TaskDetect, false},
		{"detect without classes", Config{Task: model.TaskDetect}, "", true},
		{"segment", Config{Task: model.TaskSegment, NumClasses: 80, MaskChannels: 32}, model.TaskSegment, false},
		{"segment default mask channels", Config{Task: model.TaskSegment, NumClasses: 1}, model.TaskSegment, false},
		{"pose defaults to coco keypoints", Config{Task: model.TaskPose}, model.TaskPose, false},
		{"obb", Config{Task: model.TaskOBB, NumClasses: 15}, model.TaskOBB, false},
		{"classify", Config{Task: model.TaskClassify, NumClasses: 1000}, model.TaskClassify, false},
		{"unknown task", Config{Task: "depth"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder, err := NewDecoder(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.task, decoder.Task())
		})
	}
}

func TestCocoLabels(t *testing.T) {
	assert.Len(t, model.CocoLabels, 80)
	assert.Equal(t, "person", model.CocoLabels.Name(0))
	assert.Equal(t, model.UnknownLabel, model.CocoLabels.Name(80))
}
