// Package annindex implements sign-random-projection LSH over chunk
// embeddings: a deterministic projection matrix buckets chunks by a
// binary signature, and queries retrieve candidates within a Hamming
// radius of the query's own signature before an exact rerank.
//
// The package shape -- a mutex-free struct with Build/Query methods and
// a small config struct -- follows the teacher's
// internal/store/hnsw.go wrapper around coder/hnsw; the projection,
// signature and bucket-enumeration logic itself is original, since no
// example repo implements this exact deterministic scheme (see
// DESIGN.md).
package annindex

import (
	"strings"

	"github.com/ragdex/ragdex/internal/vectormath"
	"github.com/ragdex/ragdex/pkg/types"
)

// Config holds the tunable parameters of the index.
type Config struct {
	ProjectionDim          int
	MaxHammingDistance     int
	FallbackMinCandidates  int
	MaxRerankCandidates    int
}

// DefaultConfig returns the spec's default ANN parameters.
func DefaultConfig() Config {
	return Config{
		ProjectionDim:         16,
		MaxHammingDistance:    3,
		FallbackMinCandidates: 32,
		MaxRerankCandidates:   1200,
	}
}

// Index is a built LSH index over a fixed embedding dimensionality.
type Index struct {
	dimensions int
	projection [][]float32
	buckets    map[string][]string // signature -> chunk ids
	config     Config
}

// Build constructs an Index from chunks, using the embedding length of
// the first chunk as the index's dimensionality. Chunks whose embedding
// length does not match are skipped. Returns nil if chunks is empty or
// the first chunk has an empty embedding.
func Build(chunks []*types.Chunk, cfg Config) *Index {
	if len(chunks) == 0 || len(chunks[0].Embedding) == 0 {
		return nil
	}

	dim := len(chunks[0].Embedding)
	projection := vectormath.NewProjection(dim, cfg.ProjectionDim)

	idx := &Index{
		dimensions: dim,
		projection: projection,
		buckets:    make(map[string][]string),
		config:     cfg,
	}

	for _, c := range chunks {
		if len(c.Embedding) != dim {
			continue
		}
		sig := idx.signature(c.Embedding)
		idx.buckets[sig] = append(idx.buckets[sig], c.ID)
	}

	return idx
}

// Dimensions returns the embedding length this index was built for.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// signature computes the projectionDim-length sign bit-string for e: bit
// i is '1' iff the dot product of e with projection row i is >= 0.
func (idx *Index) signature(e []float32) string {
	var b strings.Builder
	b.Grow(len(idx.projection))
	for _, row := range idx.projection {
		if vectormath.Dot(e, row) >= 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Query returns the candidate chunks within the configured Hamming radius
// of queryEmbedding's signature, or nil if the candidate set is too small
// (the caller should then brute-force over all chunks) or the query's
// dimensionality does not match the index.
func (idx *Index) Query(queryEmbedding []float32, chunks map[string]*types.Chunk) []*types.Chunk {
	if idx == nil || len(queryEmbedding) != idx.dimensions {
		return nil
	}

	querySig := idx.signature(queryEmbedding)
	seen := make(map[string]bool)
	var ids []string

	for _, sig := range signaturesWithinRadius(querySig, idx.config.MaxHammingDistance) {
		for _, id := range idx.buckets[sig] {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if len(ids) >= idx.config.MaxRerankCandidates {
			break
		}
	}

	if len(ids) < idx.config.FallbackMinCandidates {
		return nil
	}

	result := make([]*types.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := chunks[id]; ok {
			result = append(result, c)
		}
	}
	return result
}

// signaturesWithinRadius enumerates the query signature itself plus all
// 1-bit and 2-bit flips, in that order. A flip count is only generated
// when maxDistance allows it, so every returned signature is within
// maxDistance without a separate filter pass. Per spec §4.3/§9, enumeration is
// explicitly limited to 1- and 2-flips regardless of a configured radius
// higher than 2 -- bucket discovery at radius 3 is partially achieved,
// which is an accepted, spec-documented limitation rather than a bug.
func signaturesWithinRadius(sig string, maxDistance int) []string {
	if maxDistance < 0 {
		return nil
	}

	sigs := []string{sig}
	n := len(sig)

	if maxDistance >= 1 {
		for i := 0; i < n; i++ {
			sigs = append(sigs, flip(sig, i))
		}
	}

	if maxDistance >= 2 {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				sigs = append(sigs, flip(flip(sig, i), j))
			}
		}
	}

	return sigs
}

func flip(sig string, i int) string {
	b := []byte(sig)
	if b[i] == '1' {
		b[i] = '0'
	} else {
		b[i] = '1'
	}
	return string(b)
}

// Hamming returns the Hamming distance between two equal-length bit
// strings, or -1 if their lengths differ. Exported for tests that verify
// the enumeration contract independently of Query.
func Hamming(a, b string) int {
	if len(a) != len(b) {
		return -1
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}
