package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"raglayer/src/log"
	"raglayer/src/metrics"
)

const (
	DefaultSearchLimit = 5
	DefaultCertainty   = 0.7

	// rrfK dampens the rank contribution in reciprocal rank fusion
	rrfK = 60
)

type searchService struct {
	collections CollectionRepository
	vectors     VectorStore
	keywords    KeywordStore
	llm         LLMProvider
}

// NewSearchService creates the retrieval service. Hybrid requests go to the
// vector backend's native hybrid query when it has one; otherwise vector and
// keyword results are merged with reciprocal rank fusion.
func NewSearchService(
	collections CollectionRepository,
	vectors VectorStore,
	keywords KeywordStore,
	llm LLMProvider,
) SearchService {
	return &searchService{
		collections: collections,
		vectors:     vectors,
		keywords:    keywords,
		llm:         llm,
	}
}

func (s *searchService) Search(ctx context.Context, collectionID int64, spec RetrievalSpec) ([]SearchResultChunk, error) {
	if strings.TrimSpace(spec.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}

	c, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCollectionNotFound
	}

	if spec.Limit <= 0 {
		spec.Limit = DefaultSearchLimit
	}

	embedding, err := s.llm.Embed(ctx, c.EmbeddingModel, spec.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	index := IndexName(collectionID)

	var hits []VectorHit
	if spec.Hybrid {
		metrics.Searches.WithLabelValues("hybrid").Inc()
		hits, err = s.hybrid(ctx, index, embedding, spec)
	} else {
		metrics.Searches.WithLabelValues("vector").Inc()
		certainty := spec.Certainty
		if certainty <= 0 {
			certainty = DefaultCertainty
		}
		hits, err = s.vectors.Query(ctx, index, embedding, VectorQuery{
			Limit:       spec.Limit,
			Certainty:   certainty,
			DocumentIDs: spec.DocumentIDs,
		})
	}
	if err != nil {
		return nil, err
	}

	log.Debug("search finished", "collection_id", collectionID, "hybrid", spec.Hybrid, "hits", len(hits))

	results := make([]SearchResultChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResultChunk{
			Content:    hit.Content,
			Summary:    hit.Summary,
			Score:      hit.Score,
			DocumentID: hit.DocumentID,
			ChunkID:    hit.ChunkID,
			Order:      hit.Order,
		})
	}

	return results, nil
}

// hybrid runs the backend's native hybrid query, falling back to merging
// separate vector and keyword result lists when the backend has none
func (s *searchService) hybrid(ctx context.Context, index string, embedding []float32, spec RetrievalSpec) ([]VectorHit, error) {
	hits, err := s.vectors.QueryHybrid(ctx, index, embedding, HybridQuery{
		Query:       spec.Query,
		Limit:       spec.Limit,
		DocumentIDs: spec.DocumentIDs,
	})
	if err == nil {
		return hits, nil
	}
	if !errors.Is(err, ErrHybridUnsupported) {
		return nil, err
	}

	vectorHits, err := s.vectors.Query(ctx, index, embedding, VectorQuery{
		Limit:       spec.Limit,
		DocumentIDs: spec.DocumentIDs,
	})
	if err != nil {
		return nil, err
	}

	keywordHits, err := s.keywords.Search(ctx, index, spec.Query, spec.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}

	return MergeHits(vectorHits, keywordHits, spec.Limit), nil
}

// MergeHits fuses two ranked result lists with reciprocal rank fusion.
// Chunks appearing in both lists accumulate both rank contributions, so
// agreement between the retrievers pushes a chunk up.
func MergeHits(vectorHits, keywordHits []VectorHit, limit int) []VectorHit {
	type fused struct {
		hit   VectorHit
		score float64
	}
	byChunk := make(map[int64]*fused)

	accumulate := func(hits []VectorHit) {
		for rank, hit := range hits {
			contribution := 1.0 / float64(rrfK+rank+1)
			if f, ok := byChunk[hit.ChunkID]; ok {
				f.score += contribution
				continue
			}
			byChunk[hit.ChunkID] = &fused{hit: hit, score: contribution}
		}
	}
	accumulate(vectorHits)
	accumulate(keywordHits)

	merged := make([]VectorHit, 0, len(byChunk))
	for _, f := range byChunk {
		f.hit.Score = f.score
		merged = append(merged, f.hit)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ChunkID < merged[j].ChunkID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	return merged
}
