package collection_test

import (
	"context"
	"errors"
	"testing"

	collection "raglayer/src/core/collection"
)

type fakeRepo struct {
	collections map[int64]*collection.Collection
}

func (f *fakeRepo) List(ctx context.Context, offset, limit int) ([]collection.Collection, error) {
	return nil, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (*collection.Collection, error) {
	return f.collections[id], nil
}

func (f *fakeRepo) Create(ctx context.Context, c *collection.Collection) error { return nil }
func (f *fakeRepo) Delete(ctx context.Context, id int64) error                 { return nil }

type fakeVectorStore struct {
	queryHits  []collection.VectorHit
	hybridHits []collection.VectorHit
	hybridErr  error
}

func (f *fakeVectorStore) Ping(ctx context.Context) error                     { return nil }
func (f *fakeVectorStore) EnsureIndex(ctx context.Context, index string) error { return nil }
func (f *fakeVectorStore) DeleteIndex(ctx context.Context, index string) error { return nil }
func (f *fakeVectorStore) AddBatch(ctx context.Context, index string, objects []collection.VectorObject) error {
	return nil
}
func (f *fakeVectorStore) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	return nil
}
func (f *fakeVectorStore) Count(ctx context.Context, index string) (int, error) { return 0, nil }

func (f *fakeVectorStore) Query(ctx context.Context, index string, vector []float32, q collection.VectorQuery) ([]collection.VectorHit, error) {
	return f.queryHits, nil
}

func (f *fakeVectorStore) QueryHybrid(ctx context.Context, index string, vector []float32, q collection.HybridQuery) ([]collection.VectorHit, error) {
	return f.hybridHits, f.hybridErr
}

type fakeKeywordStore struct {
	hits []collection.VectorHit
}

func (f *fakeKeywordStore) EnsureIndex(ctx context.Context, index string) error { return nil }
func (f *fakeKeywordStore) DeleteIndex(ctx context.Context, index string) error { return nil }
func (f *fakeKeywordStore) IndexBatch(ctx context.Context, index string, docs []collection.KeywordDocument) error {
	return nil
}
func (f *fakeKeywordStore) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	return nil
}
func (f *fakeKeywordStore) Search(ctx context.Context, index string, query string, limit int) ([]collection.VectorHit, error) {
	return f.hits, nil
}
func (f *fakeKeywordStore) Ping(ctx context.Context) error { return nil }

type fakeLLM struct{}

func (f *fakeLLM) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, model, system, prompt string, options map[string]interface{}) (string, error) {
	return "", nil
}

func (f *fakeLLM) Describe(ctx context.Context, model, text string) (string, error) {
	return "", nil
}

func (f *fakeLLM) Models(ctx context.Context) ([]string, error) { return nil, nil }

func newTestRepo() *fakeRepo {
	return &fakeRepo{collections: map[int64]*collection.Collection{
		1: {ID: 1, Name: "docs", EmbeddingModel: "embed", CompletionModel: "chat"},
	}}
}

func TestSearchUnknownCollection(t *testing.T) {
	svc := collection.NewSearchService(newTestRepo(), &fakeVectorStore{}, &fakeKeywordStore{}, &fakeLLM{})

	_, err := svc.Search(context.Background(), 42, collection.RetrievalSpec{Query: "q"})
	if !errors.Is(err, collection.ErrCollectionNotFound) {
		t.Errorf("Search() error = %v, want ErrCollectionNotFound", err)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := collection.NewSearchService(newTestRepo(), &fakeVectorStore{}, &fakeKeywordStore{}, &fakeLLM{})

	_, err := svc.Search(context.Background(), 1, collection.RetrievalSpec{Query: "  "})
	if !errors.Is(err, collection.ErrInvalidRequest) {
		t.Errorf("Search() error = %v, want ErrInvalidRequest", err)
	}
}

func TestSearchVector(t *testing.T) {
	vectors := &fakeVectorStore{
		queryHits: []collection.VectorHit{
			{Content: "hit one", ChunkID: 11, DocumentID: 1, Score: 0.91},
		},
	}
	svc := collection.NewSearchService(newTestRepo(), vectors, &fakeKeywordStore{}, &fakeLLM{})

	results, err := svc.Search(context.Background(), 1, collection.RetrievalSpec{Query: "one"})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != 11 {
		t.Errorf("Search() = %+v, want single hit with chunk 11", results)
	}
}

func TestSearchHybridNative(t *testing.T) {
	vectors := &fakeVectorStore{
		hybridHits: []collection.VectorHit{{Content: "native", ChunkID: 7}},
		queryHits:  []collection.VectorHit{{Content: "vector only", ChunkID: 8}},
	}
	svc := collection.NewSearchService(newTestRepo(), vectors, &fakeKeywordStore{}, &fakeLLM{})

	results, err := svc.Search(context.Background(), 1, collection.RetrievalSpec{Query: "q", Hybrid: true})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != 7 {
		t.Errorf("Search() = %+v, want native hybrid hit", results)
	}
}

func TestSearchHybridFallsBackToMerge(t *testing.T) {
	vectors := &fakeVectorStore{
		hybridErr: collection.ErrHybridUnsupported,
		queryHits: []collection.VectorHit{
			{Content: "shared", ChunkID: 1},
			{Content: "vector only", ChunkID: 2},
		},
	}
	keywords := &fakeKeywordStore{
		hits: []collection.VectorHit{
			{Content: "keyword only", ChunkID: 3},
			{Content: "shared", ChunkID: 1},
		},
	}
	svc := collection.NewSearchService(newTestRepo(), vectors, keywords, &fakeLLM{})

	results, err := svc.Search(context.Background(), 1, collection.RetrievalSpec{Query: "q", Hybrid: true})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3", len(results))
	}
	// chunk 1 appears in both lists, so fusion must rank it first
	if results[0].ChunkID != 1 {
		t.Errorf("Search() top chunk = %d, want 1", results[0].ChunkID)
	}
}

func TestMergeHits(t *testing.T) {
	vectorHits := []collection.VectorHit{
		{ChunkID: 1, Content: "a"},
		{ChunkID: 2, Content: "b"},
		{ChunkID: 3, Content: "c"},
	}
	keywordHits := []collection.VectorHit{
		{ChunkID: 3, Content: "c"},
		{ChunkID: 4, Content: "d"},
	}

	merged := collection.MergeHits(vectorHits, keywordHits, 3)

	if len(merged) != 3 {
		t.Fatalf("MergeHits() returned %d hits, want 3", len(merged))
	}
	// chunk 3 holds ranks in both lists and must come out on top
	if merged[0].ChunkID != 3 {
		t.Errorf("MergeHits() top chunk = %d, want 3", merged[0].ChunkID)
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Score > merged[i-1].Score {
			t.Errorf("MergeHits() not sorted by score at index %d", i)
		}
	}
}

func TestMergeHitsNoLimit(t *testing.T) {
	merged := collection.MergeHits(
		[]collection.VectorHit{{ChunkID: 1}},
		[]collection.VectorHit{{ChunkID: 2}},
		0,
	)
	if len(merged) != 2 {
		t.Errorf("MergeHits() returned %d hits, want 2", len(merged))
	}
}
