package ground

import (
	"context"
	"fmt"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"
)

// EmbeddingScorer scores semantic similarity via an embeddings API. Vectors
// are cached in memory per scorer, so repeated comparisons against the same
// catalog sentence cost one API call.
type EmbeddingScorer struct {
	client *openai.Client
	model  openai.EmbeddingModel
	cache  *gocache.Cache
}

// NewEmbeddingScorer creates a scorer backed by the given client. An empty
// model name defaults to text-embedding-3-small.
func NewEmbeddingScorer(client *openai.Client, model string) *EmbeddingScorer {
	embeddingModel := openai.SmallEmbedding3
	if model != "" {
		embeddingModel = openai.EmbeddingModel(model)
	}
	return &EmbeddingScorer{
		client: client,
		model:  embeddingModel,
		cache:  gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Similarity returns the cosine similarity of the two texts' embeddings,
// clamped to [0, 1].
func (e *EmbeddingScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	embA, err := e.embedding(ctx, a)
	if err != nil {
		return 0, err
	}
	embB, err := e.embedding(ctx, b)
	if err != nil {
		return 0, err
	}

	sim := cosine(embA, embB)
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

// CacheSize reports the number of cached embeddings.
func (e *EmbeddingScorer) CacheSize() int {
	return e.cache.ItemCount()
}

// ClearCache drops all cached embeddings.
func (e *EmbeddingScorer) ClearCache() {
	e.cache.Flush()
}

func (e *EmbeddingScorer) embedding(ctx context.Context, text string) ([]float32, error) {
	if cached, found := e.cache.Get(text); found {
		return cached.([]float32), nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Data[0].Embedding
	e.cache.Set(text, vec, gocache.DefaultExpiration)
	return vec, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
