package collection

import (
	"context"
	"errors"
	"fmt"
)

// ErrHybridUnsupported is returned by vector backends without a native
// hybrid (vector + BM25) query; callers fall back to merging keyword hits.
var ErrHybridUnsupported = errors.New("hybrid search not supported by this backend")

// LLMProvider defines operations for language model interactions
type LLMProvider interface {
	// Embed maps text to a vector using the given embedding model
	Embed(ctx context.Context, model string, text string) ([]float32, error)
	// Generate produces a completion for the prompt using the given model
	Generate(ctx context.Context, model, system, prompt string, options map[string]interface{}) (string, error)
	// Describe produces a short contextual summary of the given text
	Describe(ctx context.Context, model, text string) (string, error)
	// Models lists the models available on the provider
	Models(ctx context.Context) ([]string, error)
}

// VectorObject is a chunk with its embedding, ready for indexing
type VectorObject struct {
	Vector     []float32
	DocumentID int64
	ChunkID    int64
	Order      int
	Content    string
	Summary    string
}

// VectorQuery defines parameters for nearest-neighbour queries
type VectorQuery struct {
	Limit       int
	Certainty   float64
	DocumentIDs []int64
}

// HybridQuery defines parameters for combined vector/BM25 queries
type HybridQuery struct {
	Query       string
	Alpha       float32
	Limit       int
	DocumentIDs []int64
}

// VectorHit is a single retrieval result
type VectorHit struct {
	Content    string
	Summary    string
	Score      float64
	DocumentID int64
	ChunkID    int64
	Order      int
}

// VectorStore defines operations for vector storage and search
type VectorStore interface {
	Ping(ctx context.Context) error
	EnsureIndex(ctx context.Context, index string) error
	DeleteIndex(ctx context.Context, index string) error
	AddBatch(ctx context.Context, index string, objects []VectorObject) error
	RemoveDocument(ctx context.Context, index string, documentID int64) error
	Count(ctx context.Context, index string) (int, error)
	Query(ctx context.Context, index string, vector []float32, q VectorQuery) ([]VectorHit, error)
	QueryHybrid(ctx context.Context, index string, vector []float32, q HybridQuery) ([]VectorHit, error)
}

// KeywordDocument is a chunk indexed for full-text search
type KeywordDocument struct {
	ChunkID    int64  `json:"chunkId"`
	DocumentID int64  `json:"documentId"`
	Order      int    `json:"order"`
	Content    string `json:"content"`
	Summary    string `json:"summary,omitempty"`
}

// KeywordStore defines operations for full-text chunk search
type KeywordStore interface {
	EnsureIndex(ctx context.Context, index string) error
	DeleteIndex(ctx context.Context, index string) error
	IndexBatch(ctx context.Context, index string, docs []KeywordDocument) error
	RemoveDocument(ctx context.Context, index string, documentID int64) error
	Search(ctx context.Context, index string, query string, limit int) ([]VectorHit, error)
	Ping(ctx context.Context) error
}

// IndexName returns the canonical index identifier for a collection.
// Backends adjust casing to their own naming rules.
func IndexName(collectionID int64) string {
	return fmt.Sprintf("Collection_%d", collectionID)
}
