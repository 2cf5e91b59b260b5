// Package postprocess - Non-Maximum Suppression over decoded candidates.
package postprocess

import (
	"sort"

	"github.com/edgekit/go-yolo/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which a lower-scoring candidate
	// is suppressed.
	IoUThreshold float32
	// ClassAware restricts suppression to candidates of the same class.
	// Detect, Segment and OBB run class-aware; Pose competes all
	// candidates as one group.
	ClassAware bool
	// MaxDetections caps the surviving set after suppression. Zero means
	// no cap.
	MaxDetections int
}

// ApplyNMS filters overlapping candidates using greedy Non-Maximum
// Suppression. The input is assumed to be confidence-filtered already;
// the O(n²) sweep depends on that pruning for its performance.
//
// Candidates are visited in descending-score order (ties broken by decode
// order, so results are deterministic); each pick suppresses every
// lower-scoring candidate whose overlap exceeds the threshold. Oriented
// candidates overlap via polygon clipping, with an axis-aligned
// bounding-box pre-check to skip the polygon path cheaply; everything
// else uses axis-aligned IoU.
//
// Arguments:
//   - candidates: Unordered decoded candidates.
//   - config: Suppression parameters.
//
// Returns:
//   - Surviving candidates in descending-score order. Nil input or an
//     empty slice returns nil. Running the result through ApplyNMS again
//     with the same config returns it unchanged.
func ApplyNMS(candidates []Candidate, config *NMSConfig) []Candidate {
	n := len(candidates)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Score > candidates[order[b]].Score
	})

	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}

	picked := make([]Candidate, 0, n)
	for oi, i := range order {
		if !active[i] {
			continue
		}
		anchor := candidates[i]
		picked = append(picked, anchor)

		for _, j := range order[oi+1:] {
			if !active[j] {
				continue
			}
			other := candidates[j]
			if config.ClassAware && anchor.Class != other.Class {
				continue
			}
			if overlap(anchor, other) > config.IoUThreshold {
				active[j] = false
			}
		}
	}

	if config.MaxDetections > 0 && len(picked) > config.MaxDetections {
		picked = picked[:config.MaxDetections]
	}
	return picked
}

// overlap dispatches to oriented or axis-aligned IoU depending on the
// candidates' box kind.
func overlap(a, b Candidate) float32 {
	if a.Oriented != nil && b.Oriented != nil {
		// Disjoint bounding rects cannot have polygon overlap.
		if !a.Box.Intersects(b.Box) {
			return 0
		}
		return images.OrientedIoU(*a.Oriented, *b.Oriented)
	}
	return images.CalculateIoU(a.Box, b.Box)
}
