package index

import (
	"math"
	"slices"

	"github.com/poiesic/lexrag/core"
)

// MaxMarginalRelevance picks up to k passages from candidates, trading
// relevance (Score) against similarity to passages already picked.
// lambda 1 ranks by relevance alone; lambda 0 maximizes diversity.
// candidates should be sorted best first; ties keep the earlier candidate.
func MaxMarginalRelevance(candidates []*core.Passage, k int, lambda float32) []*core.Passage {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	k = min(k, len(candidates))

	remaining := slices.Clone(candidates)
	selected := make([]*core.Passage, 0, k)

	for len(selected) < k {
		best := 0
		bestScore := float32(math.Inf(-1))
		for i, candidate := range remaining {
			var redundancy float32
			if len(selected) > 0 {
				redundancy = float32(math.Inf(-1))
				for _, s := range selected {
					redundancy = max(redundancy, CosineSimilarity(candidate.Vector, s.Vector))
				}
			}

			score := lambda*candidate.Score - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		selected = append(selected, remaining[best])
		remaining = slices.Delete(remaining, best, best+1)
	}

	return selected
}
