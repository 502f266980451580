package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdex/ragdex/pkg/types"
)

func TestTextChunkEmptyInput(t *testing.T) {
	assert.Nil(t, TextChunk("", Options{}))
	assert.Nil(t, TextChunk("   \n\t  ", Options{}))
}

func TestTextChunkNormalizesCRLF(t *testing.T) {
	pieces := TextChunk("line one\r\nline two", Options{ChunkSize: 1200})
	require.Len(t, pieces, 1)
	assert.NotContains(t, pieces[0].Content, "\r")
}

func TestTextChunkSplitsWithOverlap(t *testing.T) {
	content := strings.Repeat("a", 30)
	pieces := TextChunk(content, Options{ChunkSize: 10, ChunkOverlap: 3})
	require.True(t, len(pieces) > 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p.Content), 10)
	}
}

type fakeExtractor struct {
	symbols []types.Symbol
	err     error
}

func (f *fakeExtractor) ExtractSymbols(source, language string) ([]types.Symbol, error) {
	return f.symbols, f.err
}

func TestCodeChunkFallsBackOnExtractorError(t *testing.T) {
	ex := &fakeExtractor{err: assertErr}
	pieces := CodeChunk("package main\n\nfunc main() {}\n", "go", ex, Options{})
	require.NotEmpty(t, pieces)
	assert.Empty(t, pieces[0].Symbols)
}

var assertErr = errUnsupported{}

type errUnsupported struct{}

func (errUnsupported) Error() string { return "unsupported language" }

func TestCodeChunkUsesSymbolSpans(t *testing.T) {
	source := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	start := strings.Index(source, "func main")
	end := len(source)
	sym := types.Symbol{
		Name: "main",
		Kind: types.KindFunction,
		ContentRange: types.Range{
			Start: types.Position{Offset: start},
			End:   types.Position{Offset: end},
		},
	}
	ex := &fakeExtractor{symbols: []types.Symbol{sym}}

	pieces := CodeChunk(source, "go", ex, Options{ChunkSize: 1200})
	require.NotEmpty(t, pieces)

	var found bool
	for _, p := range pieces {
		for _, s := range p.Symbols {
			if s.Name == "main" {
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestMergeSmallFoldsUndersizedChunks(t *testing.T) {
	pieces := []Piece{
		{Content: strings.Repeat("x", 500)},
		{Content: "tiny"},
	}
	merged := MergeSmall(pieces, 200)
	require.Len(t, merged, 1)
	assert.Contains(t, merged[0].Content, "tiny")
}

func TestMergeSmallLeavesLargeChunksAlone(t *testing.T) {
	pieces := []Piece{
		{Content: strings.Repeat("x", 500)},
		{Content: strings.Repeat("y", 500)},
	}
	merged := MergeSmall(pieces, 200)
	assert.Len(t, merged, 2)
}
