// Package postprocess - Shared anchor-column scanning helpers.
package postprocess

import "github.com/chewxy/math32"

// BestClass scans the class-score channels of one anchor column in a
// [channels, anchors] plane and returns the winning class index and
// score. NaN scores lose every comparison and are never selected as the
// max; when every score is NaN the returned score is -Inf, which fails
// any threshold.
func BestClass(data []float32, anchors, anchor, firstChannel, numClasses int) (int, float32) {
	class := 0
	best := math32.Inf(-1)
	for c := 0; c < numClasses; c++ {
		score := data[(firstChannel+c)*anchors+anchor]
		if score > best {
			best = score
			class = c
		}
	}
	return class, best
}

// PassesThreshold applies the confidence threshold. NaN and negative
// scores fail regardless of the threshold value.
func PassesThreshold(score, threshold float32) bool {
	return !math32.IsNaN(score) && score >= 0 && score >= threshold
}
