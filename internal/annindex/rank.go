package annindex

import (
	"sort"

	"github.com/ragdex/ragdex/internal/vectormath"
	"github.com/ragdex/ragdex/pkg/types"
)

// Scored pairs a candidate chunk with its cosine similarity to the query.
type Scored struct {
	Chunk *types.Chunk
	Score float64
}

// Rank scores candidates against queryEmbedding by cosine similarity,
// drops non-positive scores, sorts descending and returns the top topK.
func Rank(candidates []*types.Chunk, queryEmbedding []float32, topK int) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score := vectormath.Cosine(queryEmbedding, c.Embedding)
		if score <= 0 {
			continue
		}
		scored = append(scored, Scored{Chunk: c, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
