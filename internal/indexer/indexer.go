// Package indexer implements the incremental index lifecycle transaction:
// scan, detect drift via content hashing, chunk, embed under bounded
// concurrency, and persist. Grounded on the shape of the teacher's
// internal/index.Coordinator (one mutex held across a whole transaction,
// per-event processing loop) and internal/async.IndexProgress (status
// snapshot struct updated as phases advance), reworked to match spec.md
// §4.1's exact phase names, counters and cancellation semantics instead
// of the teacher's SQLite-backed incremental update path.
package indexer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ragdex/ragdex/internal/annindex"
	"github.com/ragdex/ragdex/internal/chunker"
	"github.com/ragdex/ragdex/internal/embedder"
	"github.com/ragdex/ragdex/internal/errorsx"
	"github.com/ragdex/ragdex/internal/folder"
	"github.com/ragdex/ragdex/internal/scanner"
	"github.com/ragdex/ragdex/internal/storage"
	"github.com/ragdex/ragdex/pkg/types"
)

// Default constants, per spec.md §6.
const (
	DefaultConcurrency      = 2
	DefaultEmbedBatchSize   = 16
	DefaultMaxFileSize      = 1048576
	HealthRefreshIntervalMs = 15000
	StaleIndexThresholdMs   = 1800000
)

// Options configures a single index() call. Zero-valued fields fall back
// to the defaults above or to the folder's already-merged Config.
type Options struct {
	IncludeExtensions []string
	ExcludeFolders    []string
	MaxFileSize       int64
	Concurrency       int
	EmbedBatchSize    int
	OutputFolder      string
	OnProgress        func(types.Status)
}

// Indexer drives index()/getStatus()/clearFolder()/ensureLoaded() over a
// shared folder.Registry, using a pluggable Embedder and chunker.Extractor.
type Indexer struct {
	registry  *folder.Registry
	embedder  embedder.Embedder
	extractor chunker.Extractor
}

// New creates an Indexer. extractor may be nil, in which case every file
// is chunked as plain text.
func New(registry *folder.Registry, emb embedder.Embedder, extractor chunker.Extractor) *Indexer {
	return &Indexer{registry: registry, embedder: emb, extractor: extractor}
}

func effectiveStoragePath(folderPath, outputFolder string) string {
	if outputFolder != "" {
		return outputFolder
	}
	return folderPath
}

func nowMs() int64 { return time.Now().UnixMilli() }

// EnsureLoaded returns the FolderCache for folderPath (creating it if
// necessary) with its persisted chunks/file-states loaded from disk, for
// use by the searcher.
func (ix *Indexer) EnsureLoaded(folderPath string, opts Options) (*folder.Cache, error) {
	folderPath = folder.NormalizePath(folderPath)
	storagePath := effectiveStoragePath(folderPath, opts.OutputFolder)
	cache := ix.registry.GetOrCreate(folderPath, opts.OutputFolder)
	if err := ix.ensureLoaded(cache, storagePath); err != nil {
		return nil, err
	}
	return cache, nil
}

func (ix *Indexer) ensureLoaded(cache *folder.Cache, storagePath string) error {
	cache.Lock()
	defer cache.Unlock()
	if cache.PersistedLoaded {
		return nil
	}

	store := storage.New(storagePath)
	loaded := store.Load()
	cache.Chunks = loaded.Chunks
	cache.FileStates = loaded.Files
	cache.Status.LastIndexedAt = loaded.LastIndexedAt
	cache.Status.TotalChunks = len(cache.Chunks)
	cache.Status.DBSizeBytes = store.Size()
	if len(cache.Chunks) > 0 {
		cache.AnnIndex = annindex.Build(chunkSlice(cache.Chunks), annindex.DefaultConfig())
	}
	if loaded.LastIndexedAt != nil {
		// A prior transaction persisted this folder's index, possibly in an
		// earlier process: search should be available against it without
		// requiring an Index() call in the current process first.
		cache.Config.Enabled = true
	}
	cache.PersistedLoaded = true
	return nil
}

func chunkSlice(m map[string]*types.Chunk) []*types.Chunk {
	out := make([]*types.Chunk, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Index runs an incremental indexing transaction over folderPath. A
// second caller while one is already in flight for this folder receives
// the first caller's result rather than starting duplicate work.
func (ix *Indexer) Index(ctx context.Context, folderPath string, opts Options) (types.Status, error) {
	folderPath = folder.NormalizePath(folderPath)
	storagePath := effectiveStoragePath(folderPath, opts.OutputFolder)
	cache := ix.registry.GetOrCreate(folderPath, opts.OutputFolder)

	cache.Lock()
	if len(opts.IncludeExtensions) > 0 {
		cache.Config.IncludeExtensions = opts.IncludeExtensions
	}
	if len(opts.ExcludeFolders) > 0 {
		cache.Config.ExcludeFolders = opts.ExcludeFolders
	}
	cache.Config.Enabled = true
	cache.Status.IncludeExtensions = cache.Config.IncludeExtensions
	cache.Status.ExcludeFolders = cache.Config.ExcludeFolders
	cache.Unlock()

	run, started := cache.StartIndex()
	if !started {
		return run.Wait()
	}

	status, err := ix.runTransaction(ctx, cache, folderPath, storagePath, opts)
	cache.FinishIndex(run, status, err)
	return status, err
}

func (ix *Indexer) runTransaction(ctx context.Context, cache *folder.Cache, folderPath, storagePath string, opts Options) (types.Status, error) {
	if err := ix.ensureLoaded(cache, storagePath); err != nil {
		return ix.failStatus(cache, errorsx.Wrap(errorsx.PersistenceFailure, err)), errorsx.Wrap(errorsx.PersistenceFailure, err)
	}

	storageDir := filepath.Join(storagePath, ".rag-ts")
	_, statErr := os.Stat(storageDir)
	createdStorageDir := os.IsNotExist(statErr)

	lock, err := newProcessLock(storageDir)
	if err != nil {
		return ix.failStatus(cache, errorsx.Wrap(errorsx.PersistenceFailure, err)), errorsx.Wrap(errorsx.PersistenceFailure, err)
	}
	acquired, err := lock.tryLock()
	if err != nil {
		return ix.failStatus(cache, errorsx.Wrap(errorsx.PersistenceFailure, err)), errorsx.Wrap(errorsx.PersistenceFailure, err)
	}
	if !acquired {
		// Another process is indexing this folder. Idempotent callers
		// just observe the existing status, rather than an error.
		cache.RLock()
		snapshot := *cache.Status.Clone()
		cache.RUnlock()
		return snapshot, nil
	}
	defer func() { _ = lock.unlock() }()

	ix.emitProgress(cache, opts, types.PhaseScanning, "")

	includeExt := opts.IncludeExtensions
	if len(includeExt) == 0 {
		includeExt = cache.Config.IncludeExtensions
	}
	excludeFolders := opts.ExcludeFolders
	if len(excludeFolders) == 0 {
		excludeFolders = cache.Config.ExcludeFolders
	}
	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	candidates, err := scanner.Scan(folderPath, scanner.Options{
		IncludeExtensions: includeExt,
		ExcludeFolders:    excludeFolders,
		MaxFileSize:       maxFileSize,
		RespectGitignore:  true,
	})
	if err != nil {
		wrapped := errorsx.Wrap(errorsx.ScannerFailure, err)
		return ix.failStatus(cache, wrapped), wrapped
	}

	currentFiles := make(map[string]scanner.FileMeta, len(candidates))
	for _, c := range candidates {
		currentFiles[c.RelativePath] = c
	}

	cache.RLock()
	priorStates := make(map[string]*types.FileState, len(cache.FileStates))
	for relPath, fs := range cache.FileStates {
		priorStates[relPath] = fs.Clone()
	}
	cache.RUnlock()

	changedIndex := false
	deletedChunkIDs := make(map[string]bool)
	deletedRelPaths := make([]string, 0)
	for relPath := range priorStates {
		if _, ok := currentFiles[relPath]; !ok {
			deletedRelPaths = append(deletedRelPaths, relPath)
			for _, id := range priorStates[relPath].ChunkIDs {
				deletedChunkIDs[id] = true
			}
			changedIndex = true
		}
	}

	var toProcess []scanner.FileMeta
	refreshedStates := make(map[string]*types.FileState)
	skippedUnchanged := 0

	for relPath, meta := range currentFiles {
		prior, hadPrior := priorStates[relPath]
		if hadPrior && prior.ModifiedAt == meta.ModifiedAt && prior.Size == meta.Size {
			skippedUnchanged++
			continue
		}

		data, readErr := os.ReadFile(meta.FullPath)
		if readErr != nil {
			wrapped := errorsx.Wrap(errorsx.ReadFailure, fmt.Errorf("read %s: %w", relPath, readErr))
			return ix.failStatus(cache, wrapped), wrapped
		}
		hash := sha1Hex(data)

		if hadPrior && prior.ContentHash == hash {
			refreshed := prior.Clone()
			refreshed.ModifiedAt = meta.ModifiedAt
			refreshed.Size = meta.Size
			refreshedStates[relPath] = refreshed
			skippedUnchanged++
			continue
		}

		toProcess = append(toProcess, meta)
	}

	ix.emitProgress(cache, opts, types.PhaseEmbedding, "")

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	embedBatchSize := opts.EmbedBatchSize
	if embedBatchSize <= 0 {
		embedBatchSize = DefaultEmbedBatchSize
	}

	type fileResult struct {
		relPath   string
		chunks    []*types.Chunk
		fileState *types.FileState
	}

	results := make([]*fileResult, len(toProcess))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, meta := range toProcess {
		i, meta := i, meta
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, readErr := os.ReadFile(meta.FullPath)
			if readErr != nil {
				return errorsx.Wrap(errorsx.ReadFailure, fmt.Errorf("read %s: %w", meta.RelativePath, readErr))
			}
			hash := sha1Hex(data)

			language := languageForExt(filepath.Ext(meta.RelativePath))
			pieces := chunker.CodeChunk(string(data), language, ix.extractor, chunker.Options{})
			pieces = chunker.MergeSmall(pieces, chunker.DefaultMinChunkSize)

			chunks := make([]*types.Chunk, 0, len(pieces))
			for start := 0; start < len(pieces); start += embedBatchSize {
				if err := gctx.Err(); err != nil {
					return err
				}
				end := start + embedBatchSize
				if end > len(pieces) {
					end = len(pieces)
				}
				batch := pieces[start:end]

				texts := make([]string, len(batch))
				for j, p := range batch {
					texts[j] = p.Content
				}

				vectors, embedErr := ix.embedder.Embed(gctx, texts)
				if embedErr != nil {
					return errorsx.Wrap(errorsx.EmbeddingProviderFailure, embedErr)
				}
				if len(vectors) != len(texts) {
					return errorsx.New(errorsx.EmbeddingProviderFailure,
						fmt.Sprintf("embedder returned %d vectors for %d texts", len(vectors), len(texts)))
				}

				for j, p := range batch {
					ordinal := start + j
					chunks = append(chunks, &types.Chunk{
						ID:         fmt.Sprintf("%s::%d", meta.RelativePath, ordinal),
						FilePath:   meta.RelativePath,
						ModifiedAt: meta.ModifiedAt,
						Content:    p.Content,
						Embedding:  vectors[j],
						Symbols:    p.Symbols,
					})
				}
			}

			chunkIDs := make([]string, len(chunks))
			for j, c := range chunks {
				chunkIDs[j] = c.ID
			}

			results[i] = &fileResult{
				relPath: meta.RelativePath,
				chunks:  chunks,
				fileState: &types.FileState{
					ModifiedAt:  meta.ModifiedAt,
					Size:        meta.Size,
					ContentHash: hash,
					ChunkIDs:    chunkIDs,
				},
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		if ctx.Err() != nil || errorsx.IsCancelled(waitErr) {
			status := cache.Status.Clone()
			status.Phase = types.PhaseIdle
			status.Message = "operation cancelled"
			cache.Lock()
			cache.Status = *status
			cache.Unlock()
			if createdStorageDir {
				// Only the lock file lives in a directory this transaction
				// created; remove it so a cancelled run leaves disk as it was.
				_ = lock.unlock()
				_ = os.RemoveAll(storageDir)
			}
			return *status, nil
		}
		return ix.failStatus(cache, waitErr), waitErr
	}

	embeddedFiles := 0
	for _, r := range results {
		if r != nil {
			embeddedFiles++
			changedIndex = true
		}
	}

	cache.Lock()

	for _, relPath := range deletedRelPaths {
		delete(cache.FileStates, relPath)
	}
	for id := range deletedChunkIDs {
		delete(cache.Chunks, id)
	}
	for relPath, fs := range refreshedStates {
		cache.FileStates[relPath] = fs
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if prior, ok := cache.FileStates[r.relPath]; ok {
			for _, id := range prior.ChunkIDs {
				delete(cache.Chunks, id)
			}
		}
		for _, c := range r.chunks {
			cache.Chunks[c.ID] = c
		}
		cache.FileStates[r.relPath] = r.fileState
	}

	if changedIndex {
		cache.IndexRevision++
		cache.AnnIndex = annindex.Build(chunkSlice(cache.Chunks), annindex.DefaultConfig())
		// Entries keyed by the prior revision are shadowed, not evicted:
		// the searcher's revision check filters them out lazily.
	}

	cache.Status.TotalFiles = len(currentFiles)
	cache.Status.FilesToEmbed = len(toProcess)
	cache.Status.EmbeddedFiles = embeddedFiles
	cache.Status.SkippedUnchanged = skippedUnchanged
	cache.Status.TotalChunks = len(cache.Chunks)
	cache.Status.Phase = types.PhaseReady
	cache.Status.Message = ""
	cache.Status.FileChangeDrift = false
	cache.Status.DriftAddedFiles = 0
	cache.Status.DriftModifiedFiles = 0
	cache.Status.DriftDeletedFiles = 0

	var persistErr error
	if changedIndex {
		store := storage.New(storagePath)
		ts := nowMs()
		if err := store.Save(cache.Chunks, cache.FileStates, ts); err != nil {
			persistErr = errorsx.Wrap(errorsx.PersistenceFailure, err)
		} else {
			cache.Status.LastIndexedAt = &ts
			cache.Status.DBSizeBytes = store.Size()
		}
	}

	if persistErr != nil {
		cache.Status.Phase = types.PhaseError
		cache.Status.Message = persistErr.Error()
	}

	status := *cache.Status.Clone()
	cache.Unlock()

	ix.emitProgress(cache, opts, status.Phase, status.Message)

	if persistErr != nil {
		return status, persistErr
	}
	return status, nil
}

func (ix *Indexer) failStatus(cache *folder.Cache, err error) types.Status {
	cache.Lock()
	cache.Status.Phase = types.PhaseError
	cache.Status.Message = err.Error()
	status := *cache.Status.Clone()
	cache.Unlock()
	return status
}

func (ix *Indexer) emitProgress(cache *folder.Cache, opts Options, phase types.Phase, message string) {
	cache.Lock()
	cache.Status.Phase = phase
	if message != "" {
		cache.Status.Message = message
	}
	snapshot := cache.Status.Clone()
	cache.Unlock()

	if opts.OnProgress != nil {
		opts.OnProgress(*snapshot)
	}
}

// ClearFolder drops the in-memory cache for folderPath/outputFolder and
// removes its on-disk storage directory.
func (ix *Indexer) ClearFolder(folderPath string, opts Options) error {
	folderPath = folder.NormalizePath(folderPath)
	storagePath := effectiveStoragePath(folderPath, opts.OutputFolder)

	if err := storage.New(storagePath).Clear(); err != nil {
		return err
	}
	ix.registry.Drop(folderPath, opts.OutputFolder)
	return nil
}

// GetStatus returns the current status, refreshing drift counters at
// most once per HealthRefreshIntervalMs. It never mutates the index.
func (ix *Indexer) GetStatus(folderPath string, opts Options) (types.Status, error) {
	folderPath = folder.NormalizePath(folderPath)
	storagePath := effectiveStoragePath(folderPath, opts.OutputFolder)
	cache := ix.registry.GetOrCreate(folderPath, opts.OutputFolder)

	if err := ix.ensureLoaded(cache, storagePath); err != nil {
		return ix.failStatus(cache, errorsx.Wrap(errorsx.PersistenceFailure, err)), err
	}

	now := nowMs()
	if now-cache.LastHealthRefresh() < HealthRefreshIntervalMs {
		cache.RLock()
		status := *cache.Status.Clone()
		status.CachedFolders = ix.registry.Count()
		cache.RUnlock()
		return status, nil
	}

	run, started := cache.StartHealthRefresh()
	if !started {
		run.Wait()
		cache.RLock()
		status := *cache.Status.Clone()
		cache.RUnlock()
		return status, nil
	}

	added, modified, deleted := ix.computeDrift(cache, folderPath, opts)

	cache.Lock()
	cache.Status.FileChangeDrift = added+modified+deleted > 0
	cache.Status.DriftAddedFiles = added
	cache.Status.DriftModifiedFiles = modified
	cache.Status.DriftDeletedFiles = deleted
	ts := now
	cache.Status.DriftCheckedAt = &ts
	if cache.Status.LastIndexedAt != nil {
		age := now - *cache.Status.LastIndexedAt
		cache.Status.StaleAgeMs = age
		cache.Status.StaleThresholdMs = StaleIndexThresholdMs
		cache.Status.StaleWarning = age > StaleIndexThresholdMs
	}
	cache.Status.CachedFolders = ix.registry.Count()
	status := *cache.Status.Clone()
	cache.Unlock()

	cache.SetLastHealthRefresh(now)
	cache.FinishHealthRefresh(run)

	return status, nil
}

// computeDrift compares a fresh scan against the currently tracked file
// states without mutating either, per spec.md §4.1's getStatus contract
// ("Runs health refresh; never mutates index"). A scan failure is
// swallowed into zero drift, per spec.md §7 ("errors inside getStatus's
// drift refresh zero the drift counters but never propagate").
func (ix *Indexer) computeDrift(cache *folder.Cache, folderPath string, opts Options) (added, modified, deleted int) {
	cache.RLock()
	includeExt := cache.Config.IncludeExtensions
	excludeFolders := cache.Config.ExcludeFolders
	states := make(map[string]*types.FileState, len(cache.FileStates))
	for relPath, fs := range cache.FileStates {
		states[relPath] = fs
	}
	cache.RUnlock()

	candidates, err := scanner.Scan(folderPath, scanner.Options{
		IncludeExtensions: includeExt,
		ExcludeFolders:    excludeFolders,
		MaxFileSize:       DefaultMaxFileSize,
		RespectGitignore:  true,
	})
	if err != nil {
		return 0, 0, 0
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.RelativePath] = true
		prior, ok := states[c.RelativePath]
		if !ok {
			added++
			continue
		}
		if prior.ModifiedAt != c.ModifiedAt || prior.Size != c.Size {
			modified++
		}
	}
	for relPath := range states {
		if !seen[relPath] {
			deleted++
		}
	}
	return added, modified, deleted
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
