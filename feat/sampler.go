package feat

import (
	"math/rand"
	"sort"
)

// Sampler draws the random row subset that split queries run over.
type Sampler struct {
	rng  *rand.Rand
	frac float64
}

// NewSampler returns a sampler drawing frac of the rows, without
// replacement. frac is clamped to (0, 1].
func NewSampler(seed int64, frac float64) *Sampler {
	if frac <= 0 || frac > 1 {
		frac = 1
	}

	return &Sampler{
		rng:  rand.New(rand.NewSource(seed)),
		frac: frac,
	}
}

// Rows returns a sorted sample of row indices out of [0, n). At least one
// row is returned for n > 0.
func (s *Sampler) Rows(n int) []int {
	if n <= 0 {
		return nil
	}

	k := int(s.frac * float64(n))
	if k < 1 {
		k = 1
	}

	rows := s.rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

// FoldMembership derives the per-row membership set from a fold column: a
// row is in-fold iff its fold value is nonzero.
func FoldMembership(fold *Column) []bool {
	in := make([]bool, fold.Len())
	for i := range in {
		in[i] = fold.Value(i) != 0
	}
	return in
}
