package chunker

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ragdex/ragdex/pkg/types"
)

type span struct {
	start, end int
	symbol     types.Symbol
}

// CodeChunk produces AST-guided chunks: it asks extractor for symbol
// spans, buffers gap text and symbol text into a pending chunk with an
// overflow check before each append, and flushes whenever the pending
// buffer would exceed opts.ChunkSize. On any extractor error, an empty
// symbol set, or no usable spans, it falls back to TextChunk over the
// whole source.
func CodeChunk(source, language string, extractor Extractor, opts Options) []Piece {
	opts = opts.withDefaults()
	normalized := normalize(source)

	if extractor == nil {
		return TextChunk(normalized, opts)
	}

	symbols, err := extractor.ExtractSymbols(normalized, language)
	if err != nil || len(symbols) == 0 {
		return TextChunk(normalized, opts)
	}

	spans := sanitizeSpans(symbols, len(normalized))
	if len(spans) == 0 {
		return TextChunk(normalized, opts)
	}

	var pieces []Piece
	var pending strings.Builder
	var pendingSymbols []types.Symbol

	flush := func() {
		trimmed := strings.TrimSpace(pending.String())
		if trimmed == "" {
			pending.Reset()
			pendingSymbols = nil
			return
		}
		if utf8.RuneCountInString(trimmed) > opts.ChunkSize {
			for _, sub := range TextChunk(trimmed, opts) {
				sub.Symbols = cloneSymbols(pendingSymbols)
				pieces = append(pieces, sub)
			}
		} else {
			pieces = append(pieces, Piece{Content: trimmed, Symbols: cloneSymbols(pendingSymbols)})
		}
		pending.Reset()
		pendingSymbols = nil
	}

	appendText := func(text string) {
		if pending.Len() > 0 && utf8.RuneCountInString(pending.String())+utf8.RuneCountInString(text)+1 > opts.ChunkSize {
			flush()
		}
		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(text)
	}

	cursor := 0
	for _, sp := range spans {
		gapEnd := sp.start
		if gapEnd > cursor {
			gap := strings.TrimSpace(normalized[cursor:gapEnd])
			if gap != "" {
				appendText(gap)
			}
		}

		symbolText := strings.TrimSpace(normalized[sp.start:sp.end])
		if symbolText != "" {
			appendText(symbolText)
			pendingSymbols = append(pendingSymbols, sp.symbol)
		}

		if sp.end > cursor {
			cursor = sp.end
		}
	}
	flush()

	if cursor < len(normalized) {
		trailing := strings.TrimSpace(normalized[cursor:])
		if trailing != "" {
			pieces = append(pieces, TextChunk(trailing, opts)...)
		}
	}

	if len(pieces) == 0 {
		return TextChunk(normalized, opts)
	}
	return pieces
}

// sanitizeSpans clamps symbol content ranges into [0, length], drops
// zero-length or backward spans, and sorts ascending by start offset,
// tie-breaking by end offset.
func sanitizeSpans(symbols []types.Symbol, length int) []span {
	spans := make([]span, 0, len(symbols))
	for _, sym := range symbols {
		start := clamp(sym.ContentRange.Start.Offset, 0, length)
		end := clamp(sym.ContentRange.End.Offset, 0, length)
		if end <= start {
			continue
		}
		spans = append(spans, span{start: start, end: end, symbol: sym})
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	return spans
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cloneSymbols(symbols []types.Symbol) []types.Symbol {
	if len(symbols) == 0 {
		return nil
	}
	clone := make([]types.Symbol, len(symbols))
	copy(clone, symbols)
	return clone
}
