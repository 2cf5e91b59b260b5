// Package pipeline - Frame timing metrics.
package pipeline

import "time"

// FPS smoothing weights. These are part of the observable contract:
// consumers compare readouts across hosts, so the smoothing must match
// everywhere.
const (
	fpsNewSampleWeight = 0.05
	fpsRetainedWeight  = 0.95
)

// FPSMeter smooths instantaneous frame rates with an exponential moving
// average. Not safe for concurrent use; inference frames arrive serially
// from a single producer.
type FPSMeter struct {
	fps float64
}

// Sample folds one frame interval into the average and returns the
// smoothed rate. Non-positive intervals (first frame, clock skew) leave
// the average unchanged.
func (m *FPSMeter) Sample(frameInterval time.Duration) float64 {
	if frameInterval <= 0 {
		return m.fps
	}
	instant := float64(time.Second) / float64(frameInterval)
	m.fps = m.fps*fpsRetainedWeight + instant*fpsNewSampleWeight
	return m.fps
}

// Value returns the current smoothed rate without sampling.
func (m *FPSMeter) Value() float64 { return m.fps }
