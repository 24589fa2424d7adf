// Package engine contains the split engines a Working task answers queries
// with. An engine pairs a loss-specific impurity scorer with a shared
// threshold search over the task's feature columns.
package engine

import (
	"slices"
	"sort"

	"github.com/EigenDog/dawg/feat"
	"github.com/EigenDog/dawg/types/msgworker"
)

// Gains below this are noise, not an improving split.
const minGain = 1e-12

// Engine computes the best split over a task's feature map. Implementations
// never mutate the map.
type Engine interface {
	// BestSplit searches every column except the target and the excluded
	// ids, over the given rows. Returns false when no improving split
	// exists.
	BestSplit(m *feat.Map, yFeatureID uint32, exclude []uint32, rows []int) (msgworker.SplitDescriptor, bool)

	// Loss names the variant, for logging.
	Loss() msgworker.Loss
}

// ForLoss selects the engine for a task's declared loss variant.
func ForLoss(l msgworker.Loss) Engine {
	switch l {
	case msgworker.LossLogistic:
		return &searchEngine{loss: l, score: logisticScorer{}}
	default:
		return &searchEngine{loss: msgworker.LossSquared, score: squaredScorer{}}
	}
}

type searchEngine struct {
	loss  msgworker.Loss
	score scorer
}

func (e *searchEngine) Loss() msgworker.Loss {
	return e.loss
}

func (e *searchEngine) BestSplit(m *feat.Map, yFeatureID uint32, exclude []uint32, rows []int) (msgworker.SplitDescriptor, bool) {
	y, ok := m.Get(yFeatureID)
	if !ok || len(rows) < 2 {
		return msgworker.SplitDescriptor{}, false
	}

	// Sorted id order keeps the result deterministic across runs.
	ids := m.FeatureIDs()
	slices.Sort(ids)

	var (
		best  msgworker.SplitDescriptor
		found bool
	)

	for _, id := range ids {
		if id == yFeatureID || slices.Contains(exclude, id) {
			continue
		}

		col, _ := m.Get(id)
		sp, ok := e.bestForColumn(id, col, y, rows)
		if ok && (!found || sp.Gain > best.Gain) {
			best = sp
			found = true
		}
	}

	return best, found
}

type sample struct {
	v float64
	y float64
}

func (e *searchEngine) bestForColumn(featureID uint32, col, y *feat.Column, rows []int) (msgworker.SplitDescriptor, bool) {
	samples := make([]sample, len(rows))
	for i, r := range rows {
		samples[i] = sample{v: col.Value(r), y: y.Value(r)}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].v < samples[j].v })

	var totalSum, totalSq float64
	for _, s := range samples {
		totalSum += s.y
		totalSq += s.y * s.y
	}

	n := len(samples)
	total := e.score.impurity(totalSum, totalSq, n)

	var (
		best    msgworker.SplitDescriptor
		found   bool
		leftSum float64
		leftSq  float64
	)

	for i := 1; i < n; i++ {
		leftSum += samples[i-1].y
		leftSq += samples[i-1].y * samples[i-1].y

		// Only between distinct values is there a threshold to cut at.
		if samples[i].v == samples[i-1].v {
			continue
		}

		left := e.score.impurity(leftSum, leftSq, i)
		right := e.score.impurity(totalSum-leftSum, totalSq-leftSq, n-i)

		gain := total - left - right
		if gain <= minGain || (found && gain <= best.Gain) {
			continue
		}

		best = msgworker.SplitDescriptor{
			FeatureID:  featureID,
			Threshold:  (samples[i-1].v + samples[i].v) / 2,
			Gain:       gain,
			LeftValue:  leftSum / float64(i),
			RightValue: (totalSum - leftSum) / float64(n-i),
		}
		found = true
	}

	return best, found
}
