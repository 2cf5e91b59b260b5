// Package model - Shared task and label definitions for YOLO decoders.
package model

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Task identifies which head a model was exported with and therefore how
// its raw output tensors are laid out.
type Task string

const (
	// TaskDetect is axis-aligned object detection.
	TaskDetect Task = "detect"
	// TaskSegment is instance segmentation (detection + prototype masks).
	TaskSegment Task = "segment"
	// TaskPose is single-class keypoint detection.
	TaskPose Task = "pose"
	// TaskOBB is oriented bounding box detection.
	TaskOBB Task = "obb"
	// TaskClassify is whole-image classification.
	TaskClassify Task = "classify"
)

// Valid reports whether t names a known task.
func (t Task) Valid() bool {
	switch t {
	case TaskDetect, TaskSegment, TaskPose, TaskOBB, TaskClassify:
		return true
	}
	return false
}

// DefaultIoUThreshold returns the suppression threshold the task family
// ships with. Detect and Segment run slightly tighter than Pose and OBB.
func (t Task) DefaultIoUThreshold() float32 {
	switch t {
	case TaskPose, TaskOBB:
		return 0.45
	default:
		return 0.4
	}
}

// UnknownLabel is substituted whenever a class index has no mapped name.
// A missing label is never an error.
const UnknownLabel = "Unknown"

// Labels is an ordered class-index-to-name mapping. Insertion order is
// significant: index i names class i.
type Labels []string

// Name returns the label for a class index, or UnknownLabel when the
// index is out of range.
func (l Labels) Name(index int) string {
	if index < 0 || index >= len(l) {
		return UnknownLabel
	}
	return l[index]
}

// ParseLabels reads one label per line, skipping blank lines.
func ParseLabels(r io.Reader) (Labels, error) {
	var labels Labels
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading labels")
	}
	return labels, nil
}

// LoadLabels reads a plain names file (one label per line) from disk.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening labels file %s", path)
	}
	defer f.Close()
	return ParseLabels(f)
}
