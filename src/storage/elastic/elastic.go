package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"raglayer/src/core/collection"
)

const DefaultSearchLimit = 20

// Store implements collection.KeywordStore on Elasticsearch. Each
// collection maps to one index of chunk documents searched with a
// match query over content and summary.
type Store struct {
	client *elasticsearch.Client
}

func NewStore(client *elasticsearch.Client) *Store {
	return &Store{client: client}
}

// indexName lowercases the canonical index name for Elasticsearch
func indexName(index string) string {
	return strings.ToLower(index)
}

func (s *Store) EnsureIndex(ctx context.Context, index string) error {
	res, err := s.client.Indices.Exists(
		[]string{indexName(index)},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"chunkId":    {"type": "long"},
				"documentId": {"type": "long"},
				"order":      {"type": "integer"},
				"content":    {"type": "text"},
				"summary":    {"type": "text"}
			}
		}
	}`

	res, err = s.client.Indices.Create(
		indexName(index),
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("failed to create index %s: %s", index, res.String())
	}

	return nil
}

func (s *Store) DeleteIndex(ctx context.Context, index string) error {
	res, err := s.client.Indices.Delete(
		[]string{indexName(index)},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", index, err)
	}
	res.Body.Close()
	return nil
}

func (s *Store) IndexBatch(ctx context.Context, index string, docs []collection.KeywordDocument) error {
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal keyword document: %w", err)
		}

		req := esapi.IndexRequest{
			Index:      indexName(index),
			DocumentID: strconv.FormatInt(doc.ChunkID, 10),
			Body:       bytes.NewReader(body),
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return fmt.Errorf("failed to index chunk %d: %w", doc.ChunkID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("failed to index chunk %d: %s", doc.ChunkID, res.Status())
		}
	}

	return nil
}

func (s *Store) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	query := fmt.Sprintf(`{"query": {"term": {"documentId": %d}}}`, documentID)
	res, err := s.client.DeleteByQuery(
		[]string{indexName(index)},
		strings.NewReader(query),
		s.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete chunks of document %d: %w", documentID, err)
	}
	res.Body.Close()
	return nil
}

// Search runs a match query over content and summary and reports the
// BM25 score
func (s *Store) Search(ctx context.Context, index string, query string, limit int) ([]collection.VectorHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"content^2", "summary"},
			},
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to encode search body: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(indexName(index)),
		s.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("failed to search index %s: %s", index, res.Status())
	}

	return parseHits(res.Body)
}

func parseHits(body io.Reader) ([]collection.VectorHit, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64                    `json:"_score"`
				Source collection.KeywordDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]collection.VectorHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, collection.VectorHit{
			Content:    h.Source.Content,
			Summary:    h.Source.Summary,
			Score:      h.Score,
			DocumentID: h.Source.DocumentID,
			ChunkID:    h.Source.ChunkID,
			Order:      h.Source.Order,
		})
	}

	return hits, nil
}

// Ping checks cluster reachability
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned %s", res.Status())
	}
	return nil
}
