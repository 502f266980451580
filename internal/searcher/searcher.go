// Package searcher implements the query path: a normalized query key,
// a query-embedding cache, a revision-tagged result cache, ANN candidate
// retrieval with a brute-force fallback, and a cosine rerank. Grounded
// on the shape of the teacher's internal/search.Engine (a struct holding
// its dependencies plus a small options type, constructed with explicit
// nil-checks) and its query-result caching in pkg/searcher, reworked
// here to spec.md §4.4's exact cache-key normalization, revision-token
// invalidation and rerank-cap behavior instead of the teacher's
// BM25+vector RRF fusion.
package searcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ragdex/ragdex/internal/annindex"
	"github.com/ragdex/ragdex/internal/embedder"
	"github.com/ragdex/ragdex/internal/folder"
	"github.com/ragdex/ragdex/internal/indexer"
	"github.com/ragdex/ragdex/pkg/types"
)

// Default constants, per spec.md §6.
const (
	DefaultTopK               = 6
	QueryResultCacheTopK      = 24
	ContextHeaderLine         = "## RAG Context (project files)"
	ContextInstructionLine    = "Use the following snippets as additional project context when relevant:"
)

// Match is one ranked search result.
type Match struct {
	FilePath string  `json:"filePath"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// Result is the outcome of a Search call.
type Result struct {
	Matches    []Match `json:"matches"`
	DurationMs int64   `json:"durationMs"`
	TotalChunks int    `json:"totalChunks"`
}

// Options configures a single search call.
type Options struct {
	TopK         int
	OutputFolder string
}

// Searcher answers similarity queries against folders previously indexed
// by an indexer.Indexer, sharing its folder.Registry so both components
// observe the same FolderCache.
type Searcher struct {
	indexer  *indexer.Indexer
	embedder embedder.Embedder
}

// New creates a Searcher over the same Indexer (and therefore the same
// folder.Registry and embedder) used for indexing.
func New(ix *indexer.Indexer, emb embedder.Embedder) *Searcher {
	return &Searcher{indexer: ix, embedder: emb}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// normalizeQueryKey lowercases, trims and collapses internal whitespace
// to a single space, per spec.md §4.4 step 3.
func normalizeQueryKey(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	return strings.Join(fields, " ")
}

// Search runs the full query path described in spec.md §4.4.
func (s *Searcher) Search(ctx context.Context, folderPath, query string, opts Options) (Result, error) {
	start := time.Now()

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	cache, err := s.indexer.EnsureLoaded(folderPath, indexer.Options{OutputFolder: opts.OutputFolder})
	if err != nil {
		return Result{DurationMs: millisSince(start)}, err
	}

	cache.RLock()
	enabled := cache.Config.Enabled
	totalChunks := len(cache.Chunks)
	cache.RUnlock()

	trimmed := strings.TrimSpace(query)
	if !enabled || totalChunks == 0 || trimmed == "" {
		return Result{DurationMs: millisSince(start), TotalChunks: totalChunks}, nil
	}

	queryKey := normalizeQueryKey(query)

	if scored := s.lookupResultCache(cache, queryKey, topK); scored != nil {
		return Result{
			Matches:     toMatches(scored, topK),
			DurationMs:  millisSince(start),
			TotalChunks: totalChunks,
		}, nil
	}

	queryEmbedding, err := s.embedQuery(ctx, cache, queryKey, trimmed)
	if err != nil {
		return Result{DurationMs: millisSince(start), TotalChunks: totalChunks}, err
	}

	cache.RLock()
	var candidates []*types.Chunk
	if cache.AnnIndex != nil {
		candidates = cache.AnnIndex.Query(queryEmbedding, cache.Chunks)
	}
	if candidates == nil {
		candidates = allChunks(cache.Chunks)
	}
	cache.RUnlock()

	rerankTopK := topK
	if QueryResultCacheTopK > rerankTopK {
		rerankTopK = QueryResultCacheTopK
	}
	scored := annindex.Rank(candidates, queryEmbedding, rerankTopK)

	cache.Lock()
	cache.QueryResultCache.Set(queryKey, folder.QueryCacheEntry{
		Revision: cache.IndexRevision,
		Scored:   scored,
	})
	revision := cache.IndexRevision
	cache.Unlock()
	_ = revision

	return Result{
		Matches:     toMatches(scored, topK),
		DurationMs:  millisSince(start),
		TotalChunks: totalChunks,
	}, nil
}

// lookupResultCache returns a valid cached scored list (per spec.md §4.4
// step 4's revision and length check), or nil if there is no usable
// cache entry.
func (s *Searcher) lookupResultCache(cache *folder.Cache, queryKey string, topK int) []annindex.Scored {
	cache.RLock()
	defer cache.RUnlock()

	entry, ok := cache.QueryResultCache.Get(queryKey)
	if !ok {
		return nil
	}
	if entry.Revision != cache.IndexRevision {
		return nil
	}
	if len(entry.Scored) < topK {
		return nil
	}
	return entry.Scored
}

// embedQuery reuses a cached query embedding if present, otherwise calls
// the embedder once and caches the result.
func (s *Searcher) embedQuery(ctx context.Context, cache *folder.Cache, queryKey, trimmedQuery string) ([]float32, error) {
	cache.RLock()
	cached, ok := cache.QueryEmbeddingCache.Get(queryKey)
	cache.RUnlock()
	if ok {
		return cached, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{trimmedQuery})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 text", len(vectors))
	}

	cache.Lock()
	cache.QueryEmbeddingCache.Set(queryKey, vectors[0])
	cache.Unlock()

	return vectors[0], nil
}

func allChunks(m map[string]*types.Chunk) []*types.Chunk {
	out := make([]*types.Chunk, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func toMatches(scored []annindex.Scored, topK int) []Match {
	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	matches := make([]Match, 0, len(scored))
	for _, sc := range scored {
		matches = append(matches, Match{
			FilePath: sc.Chunk.FilePath,
			Score:    roundScore(sc.Score),
			Content:  sc.Chunk.Content,
		})
	}
	return matches
}

func roundScore(score float64) float64 {
	return float64(int(score*1000+0.5)) / 1000
}

func millisSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// GetContextForQuery runs Search and formats the ranked chunks into a
// prompt block, per spec.md §4.4's literal header/instruction lines.
func (s *Searcher) GetContextForQuery(ctx context.Context, folderPath, query string, opts Options) (string, error) {
	result, err := s.Search(ctx, folderPath, query, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(ContextHeaderLine)
	b.WriteString("\n")
	b.WriteString(ContextInstructionLine)
	b.WriteString("\n\n")
	for _, m := range result.Matches {
		b.WriteString("### ")
		b.WriteString(m.FilePath)
		b.WriteString("\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
