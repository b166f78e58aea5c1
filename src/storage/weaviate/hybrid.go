package weaviate

import (
	"context"
	"fmt"

	"raglayer/src/core/collection"
)

const DefaultHybridAlpha = 0.75

// QueryHybrid performs hybrid search combining vector similarity and BM25
func (s *Store) QueryHybrid(ctx context.Context, index string, vector []float32, q collection.HybridQuery) ([]collection.VectorHit, error) {
	alpha := q.Alpha
	if alpha <= 0 {
		alpha = DefaultHybridAlpha
	}

	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithVector(vector).
		WithQuery(q.Query).
		WithAlpha(alpha)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := s.client.GraphQL().Get().
		WithClassName(index).
		WithFields(hitFields()...).
		WithHybrid(hybrid).
		WithLimit(limit)

	if where := documentFilter(q.DocumentIDs); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query hybrid: %w", err)
	}

	return parseHits(result.Data, index, "score"), nil
}
