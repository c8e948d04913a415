package retrieve

import (
	"sort"

	"github.com/retriva/retriva/internal/vector"
)

// rrfK is the standard Reciprocal Rank Fusion smoothing constant. Larger
// values flatten the difference between adjacent ranks.
const rrfK = 60

// fuseRRF merges ranked result lists with Reciprocal Rank Fusion: each
// chunk scores the sum of 1/(rrfK + rank) over every leg that returned it,
// with rank starting at 1. Leg-native scores are ignored entirely, which is
// what makes fusing cosine similarity with ts_rank_cd sound.
//
// The fused order is deterministic: score descending, then chunk ID
// ascending. At most limit results are returned.
func fuseRRF(legs [][]vector.Result, limit int) []vector.Result {
	type fused struct {
		record vector.Record
		score  float64
	}

	byID := make(map[string]*fused)
	for _, leg := range legs {
		for rank, res := range leg {
			f, ok := byID[res.Record.ID]
			if !ok {
				f = &fused{record: res.Record}
				byID[res.Record.ID] = f
			}
			f.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	merged := make([]vector.Result, 0, len(byID))
	for _, f := range byID {
		merged = append(merged, vector.Result{Record: f.record, Score: f.score})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Record.ID < merged[j].Record.ID
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
