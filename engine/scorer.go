package engine

import "math"

// scorer measures node impurity from running target aggregates; sum and
// sumsq are over the node's target values, n its row count. Lower is purer.
type scorer interface {
	impurity(sum, sumsq float64, n int) float64
}

// squaredScorer scores by the sum of squared deviations from the node mean.
type squaredScorer struct{}

func (squaredScorer) impurity(sum, sumsq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sumsq - sum*sum/float64(n)
}

// logisticScorer scores by binomial deviance over 0/1 targets; sum is the
// positive count.
type logisticScorer struct{}

func (logisticScorer) impurity(sum, _ float64, n int) float64 {
	if n == 0 {
		return 0
	}

	p := sum / float64(n)
	if p <= 0 || p >= 1 {
		// Pure node.
		return 0
	}

	return -2 * float64(n) * (p*math.Log(p) + (1-p)*math.Log(1-p))
}
