package annindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdex/ragdex/pkg/types"
)

func chunkWithEmbedding(id string, emb []float32) *types.Chunk {
	return &types.Chunk{ID: id, FilePath: id, Embedding: emb}
}

func TestBuildAndQueryEviction(t *testing.T) {
	chunks := []*types.Chunk{
		chunkWithEmbedding("c1", []float32{1, 0, 0}),
		chunkWithEmbedding("c2", []float32{0, 1, 0}),
	}
	cfg := Config{ProjectionDim: 8, MaxHammingDistance: 0, FallbackMinCandidates: 1, MaxRerankCandidates: 1200}
	idx := Build(chunks, cfg)
	require.NotNil(t, idx)

	byID := map[string]*types.Chunk{"c1": chunks[0], "c2": chunks[1]}

	result := idx.Query([]float32{1, 0, 0}, byID)
	require.NotNil(t, result)
	var found bool
	for _, c := range result {
		if c.ID == "c1" {
			found = true
		}
	}
	assert.True(t, found)

	result = idx.Query([]float32{1, 2, 3}, byID)
	assert.Nil(t, result, "dimension mismatch must return nil")
}

func TestFallbackBelowMinCandidates(t *testing.T) {
	chunks := []*types.Chunk{chunkWithEmbedding("c1", []float32{1, 0, 0})}
	cfg := Config{ProjectionDim: 8, MaxHammingDistance: 0, FallbackMinCandidates: 5, MaxRerankCandidates: 1200}
	idx := Build(chunks, cfg)
	require.NotNil(t, idx)

	result := idx.Query([]float32{1, 0, 0}, map[string]*types.Chunk{"c1": chunks[0]})
	assert.Nil(t, result)
}

func TestSignatureStableUnderSignPreservingShift(t *testing.T) {
	chunks := []*types.Chunk{chunkWithEmbedding("c1", []float32{5, 5, 5, 5})}
	cfg := DefaultConfig()
	idx := Build(chunks, cfg)
	require.NotNil(t, idx)

	// Adding 5 to every coordinate of [5,5,5,5] doubles each projection's
	// dot product, so every sign (and therefore every bit) is preserved.
	sigA := idx.signature([]float32{5, 5, 5, 5})
	sigB := idx.signature([]float32{10, 10, 10, 10})
	assert.Equal(t, sigA, sigB)
}

func TestSkipsMismatchedDimensionChunks(t *testing.T) {
	chunks := []*types.Chunk{
		chunkWithEmbedding("c1", []float32{1, 0}),
		chunkWithEmbedding("c2", []float32{1, 0, 0}),
	}
	idx := Build(chunks, DefaultConfig())
	require.NotNil(t, idx)
	assert.Equal(t, 2, idx.Dimensions())

	total := 0
	for _, ids := range idx.buckets {
		total += len(ids)
	}
	assert.Equal(t, 1, total)
}

func TestSignaturesWithinRadiusDistances(t *testing.T) {
	sig := "0000"
	sigs := signaturesWithinRadius(sig, 2)
	for _, s := range sigs {
		d := Hamming(sig, s)
		assert.LessOrEqual(t, d, 2)
	}
}

func TestRankDropsNonPositiveAndSorts(t *testing.T) {
	candidates := []*types.Chunk{
		chunkWithEmbedding("a", []float32{1, 0, 0}),
		chunkWithEmbedding("b", []float32{0, 1, 0}),
		chunkWithEmbedding("c", []float32{-1, 0, 0}),
	}
	scored := Rank(candidates, []float32{1, 0, 0}, 10)
	require.Len(t, scored, 1)
	assert.Equal(t, "a", scored[0].Chunk.ID)
}
