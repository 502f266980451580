// Package folder owns the per-folder cache state the indexer and
// searcher operate on: chunks, file states, caches, the ANN index and
// the running-transaction lock. Grounded on the shape of the teacher's
// internal/async.IndexProgress (mutex-guarded state, an immutable
// Snapshot for external readers) and internal/index.Coordinator (one
// mutex held across a whole transaction), generalized here into a
// per-folder singleton registry since spec.md §3 requires "a FolderCache
// is singleton per normalized folderPath within a process" -- a
// guarantee the teacher's single-project Coordinator has no need for.
package folder

import (
	"strings"
	"sync"
	"time"

	"github.com/ragdex/ragdex/internal/annindex"
	"github.com/ragdex/ragdex/internal/lrucache"
	"github.com/ragdex/ragdex/pkg/types"
)

// Query cache defaults, per spec.md §6.
const (
	QueryEmbedCacheMax  = 128
	QueryResultCacheMax = 64
	QueryCacheTTL       = 600000 * time.Millisecond
)

// Config is the mutable per-folder indexing configuration, merged from
// call options across successive index() invocations.
type Config struct {
	Enabled           bool
	IncludeExtensions []string
	ExcludeFolders    []string
}

// QueryCacheEntry is a cached search result: scored chunk ids tagged with
// the indexRevision they were computed against.
type QueryCacheEntry struct {
	Revision int
	Scored   []annindex.Scored
}

// Cache is the per-folder in-memory state described by spec.md §3.
type Cache struct {
	mu sync.RWMutex

	FolderPath  string
	StoragePath string
	Config      Config

	Status types.Status

	Chunks     map[string]*types.Chunk
	FileStates map[string]*types.FileState

	PersistedLoaded bool
	IndexRevision   int
	AnnIndex        *annindex.Index

	QueryEmbeddingCache *lrucache.Cache[string, []float32]
	QueryResultCache    *lrucache.Cache[string, QueryCacheEntry]

	// runningIndex is non-nil while a transaction is in flight; callers
	// that observe it join the same result instead of starting a new one.
	runningIndex *indexRun

	// runningHealthRefresh throttles getStatus's drift recomputation.
	runningHealthRefresh *healthRun
	lastHealthRefresh    int64 // ms since epoch
}

type indexRun struct {
	done   chan struct{}
	status types.Status
	err    error
}

type healthRun struct {
	done chan struct{}
}

// New creates an empty, not-yet-loaded Cache for folderPath/storagePath.
func New(folderPath, storagePath string) *Cache {
	return &Cache{
		FolderPath:  folderPath,
		StoragePath: storagePath,
		Chunks:      make(map[string]*types.Chunk),
		FileStates:  make(map[string]*types.FileState),
		Status: types.Status{
			FolderPath: folderPath,
			Phase:      types.PhaseIdle,
		},
		QueryEmbeddingCache: lrucache.New[string, []float32](QueryEmbedCacheMax, lrucache.WithTTL[string, []float32](QueryCacheTTL)),
		QueryResultCache:    lrucache.New[string, QueryCacheEntry](QueryResultCacheMax, lrucache.WithTTL[string, QueryCacheEntry](QueryCacheTTL)),
	}
}

// Lock/Unlock/RLock/RUnlock expose the cache's mutex to the indexer and
// searcher packages, which take it around each read or mutation of the
// cache's fields. It is not held across a whole index transaction;
// overlapping transactions are instead prevented by StartIndex's single
// in-flight run.
func (c *Cache) Lock()    { c.mu.Lock() }
func (c *Cache) Unlock()  { c.mu.Unlock() }
func (c *Cache) RLock()   { c.mu.RLock() }
func (c *Cache) RUnlock() { c.mu.RUnlock() }

// RunningIndex returns the in-flight transaction, if any.
func (c *Cache) RunningIndex() (*indexRun, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runningIndex, c.runningIndex != nil
}

// StartIndex installs a fresh in-flight transaction and returns it along
// with true, or returns the existing one and false if one is already
// running.
func (c *Cache) StartIndex() (*indexRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningIndex != nil {
		return c.runningIndex, false
	}
	c.runningIndex = &indexRun{done: make(chan struct{})}
	return c.runningIndex, true
}

// FinishIndex publishes the transaction's result and clears runningIndex.
func (c *Cache) FinishIndex(run *indexRun, status types.Status, err error) {
	c.mu.Lock()
	run.status = status
	run.err = err
	c.runningIndex = nil
	c.mu.Unlock()
	close(run.done)
}

// Wait blocks until the transaction completes and returns its result.
func (r *indexRun) Wait() (types.Status, error) {
	<-r.done
	return r.status, r.err
}

// StartHealthRefresh installs a fresh in-flight refresh, or returns the
// existing one and false if one is already running.
func (c *Cache) StartHealthRefresh() (*healthRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningHealthRefresh != nil {
		return c.runningHealthRefresh, false
	}
	c.runningHealthRefresh = &healthRun{done: make(chan struct{})}
	return c.runningHealthRefresh, true
}

// FinishHealthRefresh clears the in-flight refresh marker.
func (c *Cache) FinishHealthRefresh(run *healthRun) {
	c.mu.Lock()
	c.runningHealthRefresh = nil
	c.mu.Unlock()
	close(run.done)
}

func (r *healthRun) Wait() { <-r.done }

// LastHealthRefresh/SetLastHealthRefresh track the throttle timestamp for
// getStatus's drift recomputation (spec.md §5 "Health refresh").
func (c *Cache) LastHealthRefresh() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHealthRefresh
}

func (c *Cache) SetLastHealthRefresh(ms int64) {
	c.mu.Lock()
	c.lastHealthRefresh = ms
	c.mu.Unlock()
}

// NormalizePath replaces backslashes with forward slashes and trims a
// trailing slash, per spec.md §6's path normalization rule.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

// Registry is the per-process singleton map of normalized folderPath to
// Cache, satisfying spec.md §3's "singleton per normalized folderPath".
type Registry struct {
	mu      sync.Mutex
	folders map[string]*Cache
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{folders: make(map[string]*Cache)}
}

// GetOrCreate returns the existing Cache for folderPath/storagePath,
// creating one if this is the first reference. storagePath participates
// in the key so that the same folderPath indexed under two different
// output folders (spec.md scenario 5) yields two independent caches.
func (r *Registry) GetOrCreate(folderPath, storagePath string) *Cache {
	folderPath = NormalizePath(folderPath)
	storagePath = NormalizePath(storagePath)

	key := folderPath + "\x00" + storagePath

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.folders[key]; ok {
		return c
	}
	c := New(folderPath, storagePath)
	r.folders[key] = c
	return c
}

// Drop removes the Cache for folderPath/storagePath from the registry,
// used by clearFolder.
func (r *Registry) Drop(folderPath, storagePath string) {
	folderPath = NormalizePath(folderPath)
	storagePath = NormalizePath(storagePath)
	key := folderPath + "\x00" + storagePath

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.folders, key)
}

// Count returns the number of cached folders, surfaced in Status as
// cachedFolders.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.folders)
}
