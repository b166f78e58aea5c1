package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"raglayer/src/core/collection"
)

const DefaultQueryLimit = 20

// Store implements collection.VectorStore on a Weaviate instance.
// Each collection maps to one Weaviate class holding chunk objects
// with externally supplied vectors (vectorizer "none").
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// Ping checks instance readiness
func (s *Store) Ping(ctx context.Context) error {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check weaviate readiness: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate is not ready")
	}
	return nil
}

// chunkProperties is the schema every collection class shares
func chunkProperties() []*models.Property {
	return []*models.Property{
		{
			Name:        "content",
			DataType:    []string{"text"},
			Description: "The content of the chunk",
		},
		{
			Name:        "summary",
			DataType:    []string{"text"},
			Description: "Contextual summary of the chunk",
		},
		{
			Name:     "documentId",
			DataType: []string{"int"},
		},
		{
			Name:     "chunkId",
			DataType: []string{"int"},
		},
		{
			Name:     "chunkOrder",
			DataType: []string{"int"},
		},
	}
}

// EnsureIndex creates the class for an index if it does not exist yet
func (s *Store) EnsureIndex(ctx context.Context, index string) error {
	exists, err := s.classExists(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to check if class exists: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      index,
		Properties: chunkProperties(),
		Vectorizer: "none",
	}

	err = s.client.Schema().ClassCreator().WithClass(class).Do(ctx)
	if err != nil && !IsAlreadyExists(err) {
		return fmt.Errorf("failed to create class %s: %w", index, err)
	}

	return nil
}

// IsAlreadyExists reports whether a class creation failed only because the
// class is already there. Two concurrent EnsureIndex calls can race past the
// existence check, so the losing create is not an error.
func IsAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func (s *Store) classExists(ctx context.Context, className string) (bool, error) {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get schema: %w", err)
	}

	for _, class := range schema.Classes {
		if class.Class == className {
			return true, nil
		}
	}

	return false, nil
}

// DeleteIndex removes the class and every object in it
func (s *Store) DeleteIndex(ctx context.Context, index string) error {
	err := s.client.Schema().ClassDeleter().WithClassName(index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete class %s: %w", index, err)
	}

	return nil
}

// AddBatch writes chunk objects with their vectors in a single batch
func (s *Store) AddBatch(ctx context.Context, index string, objects []collection.VectorObject) error {
	if len(objects) == 0 {
		return nil
	}

	objs := make([]*models.Object, len(objects))
	for i, obj := range objects {
		objs[i] = &models.Object{
			Class: index,
			Properties: map[string]interface{}{
				"content":    obj.Content,
				"summary":    obj.Summary,
				"documentId": obj.DocumentID,
				"chunkId":    obj.ChunkID,
				"chunkOrder": obj.Order,
			},
			Vector: obj.Vector,
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to batch add vectors: %w", err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("batch operation returned no results")
	}

	return nil
}

// RemoveDocument deletes every chunk object belonging to a document
func (s *Store) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueInt(documentID)

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(index).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove document %d: %w", documentID, err)
	}

	return nil
}

// Count returns the number of chunk objects in an index
func (s *Store) Count(ctx context.Context, index string) (int, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(index).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate %s: %w", index, err)
	}

	if data, ok := result.Data["Aggregate"].(map[string]interface{}); ok {
		if classes, ok := data[index].([]interface{}); ok && len(classes) > 0 {
			if agg, ok := classes[0].(map[string]interface{}); ok {
				if meta, ok := agg["meta"].(map[string]interface{}); ok {
					if count, ok := meta["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}

	return 0, nil
}

// Query performs nearVector search with an optional certainty threshold
// and document filter
func (s *Store) Query(ctx context.Context, index string, vector []float32, q collection.VectorQuery) ([]collection.VectorHit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	if q.Certainty > 0 {
		nearVector.WithCertainty(float32(q.Certainty))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := s.client.GraphQL().Get().
		WithClassName(index).
		WithFields(hitFields()...).
		WithNearVector(nearVector).
		WithLimit(limit)

	if where := documentFilter(q.DocumentIDs); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	return parseHits(result.Data, index, "certainty"), nil
}

func hitFields() []graphql.Field {
	return []graphql.Field{
		{Name: "content"},
		{Name: "summary"},
		{Name: "documentId"},
		{Name: "chunkId"},
		{Name: "chunkOrder"},
		{Name: "_additional { id distance certainty score }"},
	}
}

func documentFilter(documentIDs []int64) *filters.WhereBuilder {
	if len(documentIDs) == 0 {
		return nil
	}
	return filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.ContainsAny).
		WithValueInt(documentIDs...)
}

func parseHits(data map[string]models.JSONObject, className, scoreKey string) []collection.VectorHit {
	var hits []collection.VectorHit

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return hits
	}
	objects, ok := get[className].([]interface{})
	if !ok {
		return hits
	}

	for _, obj := range objects {
		objMap, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		hit := collection.VectorHit{}
		if v, ok := objMap["content"].(string); ok {
			hit.Content = v
		}
		if v, ok := objMap["summary"].(string); ok {
			hit.Summary = v
		}
		if v, ok := objMap["documentId"].(float64); ok {
			hit.DocumentID = int64(v)
		}
		if v, ok := objMap["chunkId"].(float64); ok {
			hit.ChunkID = int64(v)
		}
		if v, ok := objMap["chunkOrder"].(float64); ok {
			hit.Order = int(v)
		}
		if additional, ok := objMap["_additional"].(map[string]interface{}); ok {
			switch scoreKey {
			case "score":
				// hybrid scores arrive as strings
				if v, ok := additional["score"].(string); ok {
					fmt.Sscanf(v, "%f", &hit.Score)
				} else if v, ok := additional["score"].(float64); ok {
					hit.Score = v
				}
			default:
				if v, ok := additional["certainty"].(float64); ok {
					hit.Score = v
				}
			}
		}

		hits = append(hits, hit)
	}

	return hits
}
