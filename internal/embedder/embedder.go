// Package embedder provides the pluggable embedding-provider interface
// and two concrete implementations: a dependency-free hash-based
// provider and an HTTP provider speaking an Ollama-style embeddings API.
// Grounded on the teacher's internal/embed package (types.go's Embedder
// interface, static.go's hash-vector scheme, ollama.go's HTTP client,
// retry.go's backoff helper and cached.go's LRU wrapper), collapsed from
// the teacher's per-text Embed/EmbedBatch split into the single batched
// contract spec.md §6 requires: vectors.length == texts.length, and an
// empty input yields an empty result rather than a call to the provider.
package embedder

import "context"

// Embedder turns a batch of texts into dense vectors. Implementations
// must honor ctx cancellation and return len(vectors) == len(texts);
// an empty texts slice must short-circuit to an empty result without
// invoking the underlying provider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
