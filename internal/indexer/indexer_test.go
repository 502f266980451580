package indexer

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
	"github.com/ragdex/ragdex/pkg/types"
)

// fakeEmbedder is a deterministic embedder for tests: each text maps to a
// 4-dimensional vector of per-term 0/1 presence flags plus a length feature,
// matching spec.md scenario 3's "[+alpha, +beta, +gamma, len/100]" shape.
type fakeEmbedder struct {
	mu         sync.Mutex
	calls      int
	beforeCall func(call int) error // optional hook, used to simulate cancellation
}

func (f *fakeEmbedder) Dimensions() int { return 4 }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.beforeCall != nil {
		if err := f.beforeCall(call); err != nil {
			return nil, err
		}
	}

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

func newTestIndexer() (*Indexer, *fakeEmbedder) {
	emb := &fakeEmbedder{}
	registry := folder.NewRegistry()
	return New(registry, emb, nil), emb
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func defaultOpts() Options {
	return Options{
		IncludeExtensions: []string{".md", ".txt"},
	}
}

func TestIndexIncrementalNoOp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/a.md", "alpha content and context")

	ix, _ := newTestIndexer()
	ctx := context.Background()

	status, err := ix.Index(ctx, dir, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseReady, status.Phase)
	assert.Equal(t, 1, status.TotalFiles)
	assert.GreaterOrEqual(t, status.TotalChunks, 1)
	firstRevision := ix.registry.GetOrCreate(folder.NormalizePath(dir), "").IndexRevision

	// Rewrite identical bytes; the content hash is unchanged.
	writeFile(t, dir, "docs/a.md", "alpha content and context")

	status2, err := ix.Index(ctx, dir, defaultOpts())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, status2.SkippedUnchanged, 1)
	secondRevision := ix.registry.GetOrCreate(folder.NormalizePath(dir), "").IndexRevision
	assert.Equal(t, firstRevision, secondRevision, "indexRevision must not advance on an unchanged tree")
}

func TestIndexDeletionDropsChunks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "b.md", "beta")

	ix, _ := newTestIndexer()
	ctx := context.Background()

	_, err := ix.Index(ctx, dir, defaultOpts())
	require.NoError(t, err)

	cache := ix.registry.GetOrCreate(folder.NormalizePath(dir), "")
	cache.RLock()
	_, hadB := cache.FileStates["b.md"]
	cache.RUnlock()
	require.True(t, hadB)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.md")))

	status, err := ix.Index(ctx, dir, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalFiles)

	cache.RLock()
	defer cache.RUnlock()
	_, stillThere := cache.FileStates["b.md"]
	assert.False(t, stillThere)
	for _, fs := range cache.FileStates {
		for _, id := range fs.ChunkIDs {
			_, ok := cache.Chunks[id]
			assert.True(t, ok, "every FileState chunk id must exist in chunks")
		}
	}
}

func TestIndexCancellationLeavesNoPartialPersistence(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, dir, filepath.Join("files", string(rune('a'+i))+".md"), "alpha content")
	}

	emb := &fakeEmbedder{}
	ctx, cancel := context.WithCancel(context.Background())
	emb.beforeCall = func(call int) error {
		if call == 2 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	registry := folder.NewRegistry()
	ix := New(registry, emb, nil)

	opts := defaultOpts()
	opts.Concurrency = 1

	status, err := ix.Index(ctx, dir, opts)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseIdle, status.Phase)
	assert.Contains(t, status.Message, "cancelled")

	_, statErr := os.Stat(filepath.Join(dir, ".rag-ts"))
	assert.True(t, os.IsNotExist(statErr), "no storage directory should be written on cancellation")
}

func TestIndexEmptyFolderIsReadyWithNoChunks(t *testing.T) {
	dir := t.TempDir()
	ix, _ := newTestIndexer()

	status, err := ix.Index(context.Background(), dir, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseReady, status.Phase)
	assert.Equal(t, 0, status.TotalFiles)
	assert.Equal(t, 0, status.TotalChunks)
}

func TestIndexConcurrentCallersShareResult(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha content and context")

	ix, _ := newTestIndexer()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]types.Status, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = ix.Index(ctx, dir, defaultOpts())
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].Phase, results[1].Phase)
}

func TestClearFolderRemovesStorageAndCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")

	ix, _ := newTestIndexer()
	ctx := context.Background()

	_, err := ix.Index(ctx, dir, defaultOpts())
	require.NoError(t, err)

	require.NoError(t, ix.ClearFolder(dir, Options{}))

	_, statErr := os.Stat(filepath.Join(dir, ".rag-ts"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, ix.registry.Count())
}

func TestIndexOutputFolderRedirection(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, srcDir, "a.md", "alpha content")

	ix, _ := newTestIndexer()
	ctx := context.Background()

	opts := defaultOpts()
	opts.OutputFolder = outDir

	_, err := ix.Index(ctx, srcDir, opts)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, ".rag-ts", ".rag-db"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(srcDir, ".rag-ts"))
	assert.True(t, os.IsNotExist(err))
}
