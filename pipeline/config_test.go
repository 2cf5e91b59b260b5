package pipeline

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/go-yolo/models/model"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds(model.TaskDetect)
	assert.Equal(t, float32(0.25), th.Confidence)
	assert.Equal(t, float32(0.4), th.IoU)
	assert.Equal(t, 30, th.MaxDetections)
	assert.Equal(t, float32(0.5), th.MaskThreshold)

	assert.Equal(t, float32(0.45), DefaultThresholds(model.TaskPose).IoU)
}

func TestLoadThresholds_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("confidence: 0.5\nmax_detections: 10\n"), 0o644))

	th, err := LoadThresholds(path, model.TaskDetect)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), th.Confidence)
	assert.Equal(t, 10, th.MaxDetections)
	// Unnamed fields keep their defaults.
	assert.Equal(t, float32(0.4), th.IoU)
}

func TestLoadThresholds_MissingFile(t *testing.T) {
	th, err := LoadThresholds(filepath.Join(t.TempDir(), "absent.yaml"), model.TaskDetect)
	assert.Error(t, err)
	// Defaults still come back so callers can proceed.
	assert.Equal(t, float32(0.25), th.Confidence)
}

func TestSettings_SnapshotIsConsistent(t *testing.T) {
	s := NewSettings(Thresholds{Confidence: 0.25, IoU: 0.4})

	// Writers flip between two complete threshold sets while readers
	// snapshot; a torn read would mix fields across sets.
	a := Thresholds{Confidence: 0.1, IoU: 0.1, MaxDetections: 1, MaskThreshold: 0.1}
	b := Thresholds{Confidence: 0.9, IoU: 0.9, MaxDetections: 9, MaskThreshold: 0.9}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				s.Update(a)
			} else {
				s.Update(b)
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		got := s.Snapshot()
		if got.Confidence == a.Confidence {
			assert.Equal(t, a, got)
		} else if got.Confidence == b.Confidence {
			assert.Equal(t, b, got)
		}
	}
	close(done)
	wg.Wait()
}
