package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/ragdex/ragdex/pkg/types"
)

// MergeSmall merges chunks shorter than minChunkSize into a neighbor,
// concatenating content with "\n" and unioning symbol lists. It merges
// forward first (a short chunk is folded into the one before it); if the
// final chunk is still short afterward, it is merged backward into the
// one before it instead of being left as an undersized trailing chunk.
func MergeSmall(pieces []Piece, minChunkSize int) []Piece {
	if minChunkSize <= 0 || len(pieces) < 2 {
		return pieces
	}

	merged := make([]Piece, 0, len(pieces))
	for _, p := range pieces {
		if len(merged) > 0 && utf8.RuneCountInString(p.Content) < minChunkSize {
			last := &merged[len(merged)-1]
			last.Content = strings.TrimSpace(last.Content + "\n" + p.Content)
			last.Symbols = unionSymbols(last.Symbols, p.Symbols)
			continue
		}
		merged = append(merged, p)
	}

	if len(merged) >= 2 {
		lastIdx := len(merged) - 1
		if utf8.RuneCountInString(merged[lastIdx].Content) < minChunkSize {
			prev := &merged[lastIdx-1]
			prev.Content = strings.TrimSpace(prev.Content + "\n" + merged[lastIdx].Content)
			prev.Symbols = unionSymbols(prev.Symbols, merged[lastIdx].Symbols)
			merged = merged[:lastIdx]
		}
	}

	return merged
}

func unionSymbols(a, b []types.Symbol) []types.Symbol {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s.Name+"|"+string(s.Kind)] = true
	}
	result := a
	for _, s := range b {
		key := s.Name + "|" + string(s.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, s)
	}
	return result
}
