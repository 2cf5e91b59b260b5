// Package classify - Score ranking for whole-image classification outputs.
package classify

import (
	"sort"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/postprocess"
)

// Decoder reads a flat [numClasses] score vector. There is no spatial
// decode; candidates carry only class and score.
type Decoder struct {
	NumClasses int
}

// Task reports the task this decoder handles.
func (d *Decoder) Task() model.Task { return model.TaskClassify }

// Decode ranks all class scores descending (ties broken by class index)
// and returns them as candidates. Classification has no confidence
// cutoff; the threshold argument exists only to satisfy the common
// decoder contract and is ignored.
func (d *Decoder) Decode(outputs []*tensor.Dense, _ float32) ([]postprocess.Candidate, error) {
	if len(outputs) < 1 {
		return nil, errors.Wrap(postprocess.ErrShapeMismatch, "classify: no output tensor")
	}
	scores, err := postprocess.Vector(outputs[0])
	if err != nil {
		return nil, err
	}
	if d.NumClasses > 0 && len(scores) != d.NumClasses {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch,
			"classify: got %d scores, want %d", len(scores), d.NumClasses)
	}

	candidates := make([]postprocess.Candidate, len(scores))
	for i, score := range scores {
		candidates[i] = postprocess.Candidate{Class: i, Score: score}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	return candidates, nil
}

// Prediction is one ranked class with its human-readable label.
type Prediction struct {
	Index int
	Label string
	Score float32
}

// Ranking is the classification result: the best class plus the top
// five, labels attached.
type Ranking struct {
	Top1 Prediction
	Top5 []Prediction
}

// Rank attaches labels to ranked candidates and extracts Top1/Top5. A
// class index with no mapped label gets the Unknown sentinel; that is a
// local substitution, never an error.
func Rank(ranked []postprocess.Candidate, labels model.Labels) *Ranking {
	if len(ranked) == 0 {
		return nil
	}
	n := min(len(ranked), 5)
	top := make([]Prediction, n)
	for i := 0; i < n; i++ {
		top[i] = Prediction{
			Index: ranked[i].Class,
			Label: labels.Name(ranked[i].Class),
			Score: ranked[i].Score,
		}
	}
	return &Ranking{Top1: top[0], Top5: top}
}
