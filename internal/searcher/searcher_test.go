package searcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdex/ragdex/internal/folder"
	"github.com/ragdex/ragdex/internal/indexer"
)

// fakeEmbedder mirrors the deterministic scheme from spec.md scenario 3:
// each text maps to [+alpha, +beta, +gamma, len/100].
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Dimensions() int { return 4 }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vectors[i] = []float32{
			boolFloat(strings.Contains(lower, "alpha")),
			boolFloat(strings.Contains(lower, "beta")),
			boolFloat(strings.Contains(lower, "gamma")),
			float32(len(text)) / 100,
		}
	}
	return vectors, nil
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestSearcher() (*indexer.Indexer, *Searcher, *fakeEmbedder) {
	emb := &fakeEmbedder{}
	registry := folder.NewRegistry()
	ix := indexer.New(registry, emb, nil)
	return ix, New(ix, emb), emb
}

func TestSearchEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/alpha.md", "alpha system architecture")
	writeFile(t, dir, "docs/beta.md", "beta deployment notes")

	ix, se, _ := newTestSearcher()
	ctx := context.Background()

	_, err := ix.Index(ctx, dir, indexer.Options{IncludeExtensions: []string{".md"}})
	require.NoError(t, err)

	result, err := se.Search(ctx, dir, "alpha", Options{TopK: 1})
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "docs/alpha.md", result.Matches[0].FilePath)
	assert.Greater(t, result.Matches[0].Score, 0.0)
}

func TestSearchWhitespaceQueryIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha content")

	ix, se, _ := newTestSearcher()
	ctx := context.Background()

	_, err := ix.Index(ctx, dir, indexer.Options{IncludeExtensions: []string{".md"}})
	require.NoError(t, err)

	result, err := se.Search(ctx, dir, "   ", Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))
}

func TestSearchEmptyIndexIsEmpty(t *testing.T) {
	dir := t.TempDir()
	_, se, _ := newTestSearcher()

	result, err := se.Search(context.Background(), dir, "anything", Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 0, result.TotalChunks)
}

func TestSearchResultCacheIsRevisionGated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha content here")
	writeFile(t, dir, "b.md", "beta content here")

	ix, se, emb := newTestSearcher()
	ctx := context.Background()

	_, err := ix.Index(ctx, dir, indexer.Options{IncludeExtensions: []string{".md"}})
	require.NoError(t, err)

	_, err = se.Search(ctx, dir, "alpha", Options{TopK: 1})
	require.NoError(t, err)

	callsAfterFirst := emb.calls

	_, err = se.Search(ctx, dir, "alpha", Options{TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, emb.calls, "a cached query embedding must not re-invoke the embedder")

	// Re-index with a new file, advancing indexRevision, to confirm the
	// stale result-cache entry is ignored rather than returned.
	writeFile(t, dir, "c.md", "alpha gamma content")
	_, err = ix.Index(ctx, dir, indexer.Options{IncludeExtensions: []string{".md"}})
	require.NoError(t, err)

	result, err := se.Search(ctx, dir, "alpha", Options{TopK: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Matches)
}

func TestGetContextForQueryFormatsPromptBlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/alpha.md", "alpha system architecture")

	ix, se, _ := newTestSearcher()
	ctx := context.Background()

	_, err := ix.Index(ctx, dir, indexer.Options{IncludeExtensions: []string{".md"}})
	require.NoError(t, err)

	block, err := se.GetContextForQuery(ctx, dir, "alpha", Options{TopK: 1})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block, ContextHeaderLine+"\n"+ContextInstructionLine+"\n\n"))
	assert.Contains(t, block, "### docs/alpha.md")
}

func TestSearchAgainstIndexPersistedByAnEarlierProcess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/alpha.md", "alpha system architecture")

	indexEmb := &fakeEmbedder{}
	indexRegistry := folder.NewRegistry()
	indexIx := indexer.New(indexRegistry, indexEmb, nil)

	ctx := context.Background()
	_, err := indexIx.Index(ctx, dir, indexer.Options{IncludeExtensions: []string{".md"}})
	require.NoError(t, err)

	// A fresh Indexer/Registry/Searcher stands in for a separate CLI
	// invocation (or a new MCP server session) that never calls Index in
	// this process and only ever loads what a prior process persisted.
	searchEmb := &fakeEmbedder{}
	searchRegistry := folder.NewRegistry()
	searchIx := indexer.New(searchRegistry, searchEmb, nil)
	se := New(searchIx, searchEmb)

	result, err := se.Search(ctx, dir, "alpha", Options{TopK: 1})
	require.NoError(t, err)
	require.Len(t, result.Matches, 1, "a fresh process must see the prior process's persisted index as enabled")
	assert.Equal(t, "docs/alpha.md", result.Matches[0].FilePath)
}

func TestSearchOutputFolderRedirection(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, srcDir, "a.md", "alpha content")

	ix, se, _ := newTestSearcher()
	ctx := context.Background()

	_, err := ix.Index(ctx, srcDir, indexer.Options{IncludeExtensions: []string{".md"}, OutputFolder: outDir})
	require.NoError(t, err)

	withOutput, err := se.Search(ctx, srcDir, "alpha", Options{OutputFolder: outDir})
	require.NoError(t, err)
	assert.NotEmpty(t, withOutput.Matches)

	withoutOutput, err := se.Search(ctx, srcDir, "alpha", Options{})
	require.NoError(t, err)
	assert.Empty(t, withoutOutput.Matches)
}
