package question

import (
	"math/rand"

	"github.com/audit-rank/auditrank/internal/curriculum"
)

// Filter selects questions by part with optional chapter/standard narrowing.
// Chapter and Standard accept curriculum.FilterAll to match everything.
type Filter struct {
	Part     string
	Chapter  string
	Standard string
}

func (f Filter) matches(q Question) bool {
	if q.Part != f.Part {
		return false
	}
	if f.Chapter != curriculum.FilterAll && q.Chapter != f.Chapter {
		return false
	}
	if f.Standard != curriculum.FilterAll && q.Standard != f.Standard {
		return false
	}
	return true
}

// QuizSet selects up to n questions matching the filter, skipping excluded
// IDs. When candidates fit within n (or n is zero, meaning "all") they are
// returned in catalog order; otherwise a uniform sample of exactly n is drawn
// without replacement. rng may be nil for production randomness; tests inject
// a seeded source.
func QuizSet(questions []Question, f Filter, n int, exclude map[string]bool, rng *rand.Rand) []Question {
	var candidates []Question
	for _, q := range questions {
		if exclude[q.ID] {
			continue
		}
		if f.matches(q) {
			candidates = append(candidates, q)
		}
	}

	if len(candidates) == 0 {
		return []Question{}
	}
	if n <= 0 || len(candidates) <= n {
		return candidates
	}

	perm := permutation(len(candidates), rng)
	sample := make([]Question, n)
	for i := 0; i < n; i++ {
		sample[i] = candidates[perm[i]]
	}
	return sample
}

func permutation(length int, rng *rand.Rand) []int {
	if rng != nil {
		return rng.Perm(length)
	}
	return rand.Perm(length)
}
