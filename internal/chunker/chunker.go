// Package chunker partitions file content into bounded, overlapping text
// chunks, optionally guided by AST symbol spans. Grounded on the
// teacher's internal/chunk/code_chunker.go structure (parse, locate
// symbol nodes, build a chunk per node, fall back to line-based
// chunking) but reworked to follow the cursor/gap/flush buffering
// algorithm and small-chunk merge pass this toolkit's chunking contract
// requires, rather than the teacher's one-symbol-per-chunk emission.
package chunker

import (
	"strings"

	"github.com/ragdex/ragdex/pkg/types"
)

// Default size policy constants.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
	DefaultMinChunkSize = 200
)

// Options tunes the chunk size/overlap/merge policy. Zero-valued fields
// fall back to the Default* constants.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap <= 0 {
		o.ChunkOverlap = DefaultChunkOverlap
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = DefaultMinChunkSize
	}
	return o
}

// Piece is one chunk of content produced by the chunker, prior to the
// caller assigning it a chunk id, file path and embedding.
type Piece struct {
	Content string
	Symbols []types.Symbol
}

// Extractor extracts named code spans from source for a given language.
// Matches spec's symbol-extractor interface: implementations may return
// an error, which the chunker treats as "no symbols" and falls back to
// plain text chunking.
type Extractor interface {
	ExtractSymbols(source, language string) ([]types.Symbol, error)
}

func normalize(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}

// TextChunk splits content into chunks of at most opts.ChunkSize runes,
// each successive chunk starting at max(prevStart+1, prevEnd-overlap).
// Returns nil for empty or whitespace-only input.
func TextChunk(content string, opts Options) []Piece {
	opts = opts.withDefaults()

	normalized := normalize(content)
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	runes := []rune(normalized)
	n := len(runes)

	var pieces []Piece
	start := 0
	for start < n {
		end := start + opts.ChunkSize
		if end > n {
			end = n
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			pieces = append(pieces, Piece{Content: chunk})
		}

		if end >= n {
			break
		}

		next := end - opts.ChunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return pieces
}
