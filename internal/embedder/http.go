package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ragdex/ragdex/internal/errorsx"
)

// HTTPConfig configures an HTTPEmbedder.
type HTTPConfig struct {
	Endpoint   string // e.g. http://localhost:11434/api/embed
	Model      string
	Timeout    time.Duration
	Retry      RetryConfig
	Dimensions int // 0 = auto-detect from the first response
}

// HTTPEmbedder calls an Ollama-style embeddings HTTP endpoint. Grounded
// on the teacher's internal/embed/ollama.go request shape and retry
// discipline, trimmed to the single batched Embed contract this toolkit
// needs (no thermal-timeout progression or model auto-discovery, since
// the endpoint and model are supplied directly by config.Embedder).
type HTTPEmbedder struct {
	client *http.Client
	cfg    HTTPConfig
	dims   int
}

// NewHTTP creates an HTTPEmbedder. It does not contact the endpoint
// until Embed is first called.
func NewHTTP(cfg HTTPConfig) *HTTPEmbedder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &HTTPEmbedder{
		client: &http.Client{},
		cfg:    cfg,
		dims:   cfg.Dimensions,
	}
}

func (e *HTTPEmbedder) Dimensions() int { return e.dims }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed sends texts to the configured endpoint. Per the embedding
// provider contract, an empty batch never reaches the HTTP layer.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var vectors [][]float32
	err := withRetry(ctx, e.cfg.Retry, func() error {
		v, err := e.doEmbed(ctx, texts)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	})
	if err != nil {
		return nil, errorsx.Wrap(errorsx.EmbeddingProviderFailure, err).WithRetryable(true)
	}

	if len(vectors) != len(texts) {
		return nil, errorsx.New(errorsx.EmbeddingProviderFailure,
			fmt.Sprintf("provider returned %d vectors for %d texts", len(vectors), len(texts)))
	}

	if e.dims == 0 && len(vectors) > 0 {
		e.dims = len(vectors[0])
	}

	return vectors, nil
}

func (e *HTTPEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody, err := json.Marshal(embedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	vectors := make([][]float32, len(decoded.Embeddings))
	for i, emb := range decoded.Embeddings {
		v := make([]float32, len(emb))
		for j, f := range emb {
			v[j] = float32(f)
		}
		vectors[i] = v
	}
	return vectors, nil
}
