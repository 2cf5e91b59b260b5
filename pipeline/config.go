// Package pipeline - Threshold configuration.
package pipeline

import (
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/segment"
)

// Thresholds are the externally settable knobs of one decode call.
type Thresholds struct {
	// Confidence is the minimum class score for a candidate.
	Confidence float32 `yaml:"confidence"`
	// IoU is the suppression overlap threshold.
	IoU float32 `yaml:"iou"`
	// MaxDetections caps the surviving set after suppression.
	MaxDetections int `yaml:"max_detections"`
	// MaskThreshold binarizes assembled masks for the combined
	// visualization mask (Segment only).
	MaskThreshold float32 `yaml:"mask_threshold"`
}

// DefaultThresholds returns the stock thresholds for a task.
func DefaultThresholds(task model.Task) Thresholds {
	return Thresholds{
		Confidence:    0.25,
		IoU:           task.DefaultIoUThreshold(),
		MaxDetections: 30,
		MaskThreshold: segment.DefaultMaskThreshold,
	}
}

// LoadThresholds reads a YAML thresholds file over the task defaults, so
// a partial file overrides only what it names.
func LoadThresholds(path string, task model.Task) (Thresholds, error) {
	th := DefaultThresholds(task)
	raw, err := os.ReadFile(path)
	if err != nil {
		return th, errors.Wrapf(err, "reading thresholds file %s", path)
	}
	if err := yaml.Unmarshal(raw, &th); err != nil {
		return th, errors.Wrapf(err, "parsing thresholds file %s", path)
	}
	return th, nil
}

// Settings holds the live thresholds behind an atomic pointer. A decode
// call snapshots them once at entry, so an Update racing a call can
// never produce a torn half-old, half-new threshold set within one pass.
type Settings struct {
	current atomic.Pointer[Thresholds]
}

// NewSettings returns Settings seeded with the given thresholds.
func NewSettings(th Thresholds) *Settings {
	s := &Settings{}
	s.current.Store(&th)
	return s
}

// Snapshot returns a consistent copy of the current thresholds.
func (s *Settings) Snapshot() Thresholds {
	return *s.current.Load()
}

// Update replaces the thresholds. Takes effect at the next decode call.
func (s *Settings) Update(th Thresholds) {
	s.current.Store(&th)
}
