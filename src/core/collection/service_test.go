package collection_test

import (
	"context"
	"errors"
	"testing"

	collection "raglayer/src/core/collection"
)

type recordingRepo struct {
	collections map[int64]*collection.Collection
	nextID      int64
	created     []*collection.Collection
	deleted     []int64
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{collections: make(map[int64]*collection.Collection), nextID: 5}
}

func (f *recordingRepo) List(ctx context.Context, offset, limit int) ([]collection.Collection, error) {
	return nil, nil
}

func (f *recordingRepo) Get(ctx context.Context, id int64) (*collection.Collection, error) {
	return f.collections[id], nil
}

func (f *recordingRepo) Create(ctx context.Context, c *collection.Collection) error {
	c.ID = f.nextID
	f.nextID++
	f.collections[c.ID] = c
	f.created = append(f.created, c)
	return nil
}

func (f *recordingRepo) Delete(ctx context.Context, id int64) error {
	delete(f.collections, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// indexRecordingVectorStore tracks index provisioning and teardown
type indexRecordingVectorStore struct {
	fakeVectorStore
	ensured   []string
	ensureErr error
	dropped   []string
}

func (f *indexRecordingVectorStore) EnsureIndex(ctx context.Context, index string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, index)
	return nil
}

func (f *indexRecordingVectorStore) DeleteIndex(ctx context.Context, index string) error {
	f.dropped = append(f.dropped, index)
	return nil
}

type indexRecordingKeywordStore struct {
	fakeKeywordStore
	ensured   []string
	ensureErr error
}

func (f *indexRecordingKeywordStore) EnsureIndex(ctx context.Context, index string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, index)
	return nil
}

func TestCreateDefaultsAndProvisionsIndexes(t *testing.T) {
	repo := newRecordingRepo()
	vectors := &indexRecordingVectorStore{}
	keywords := &indexRecordingKeywordStore{}
	svc := collection.NewCollectionService(repo, nil, nil, nil, vectors, keywords)

	c := &collection.Collection{Name: "docs"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if c.EmbeddingModel != collection.DefaultEmbeddingModel {
		t.Errorf("embedding model = %q, want default", c.EmbeddingModel)
	}
	if c.CompletionModel != collection.DefaultCompletionModel {
		t.Errorf("completion model = %q, want default", c.CompletionModel)
	}
	if c.SourceField != collection.DefaultSourceField {
		t.Errorf("source field = %q, want default", c.SourceField)
	}

	index := collection.IndexName(c.ID)
	if len(vectors.ensured) != 1 || vectors.ensured[0] != index {
		t.Errorf("vector indexes ensured = %v, want [%s]", vectors.ensured, index)
	}
	if len(keywords.ensured) != 1 || keywords.ensured[0] != index {
		t.Errorf("keyword indexes ensured = %v, want [%s]", keywords.ensured, index)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("collection rolled back on success: deleted %v", repo.deleted)
	}
}

func TestCreateRequiresName(t *testing.T) {
	repo := newRecordingRepo()
	svc := collection.NewCollectionService(repo, nil, nil, nil, &indexRecordingVectorStore{}, &indexRecordingKeywordStore{})

	err := svc.Create(context.Background(), &collection.Collection{Name: "  "})
	if !errors.Is(err, collection.ErrInvalidRequest) {
		t.Errorf("Create() error = %v, want ErrInvalidRequest", err)
	}
	if len(repo.created) != 0 {
		t.Errorf("collection persisted despite invalid name: %v", repo.created)
	}
}

func TestCreateRejectsBadTemplate(t *testing.T) {
	repo := newRecordingRepo()
	vectors := &indexRecordingVectorStore{}
	svc := collection.NewCollectionService(repo, nil, nil, nil, vectors, &indexRecordingKeywordStore{})

	err := svc.Create(context.Background(), &collection.Collection{
		Name:           "docs",
		PromptTemplate: "{{.Nope}}",
	})
	if !errors.Is(err, collection.ErrInvalidRequest) {
		t.Errorf("Create() error = %v, want ErrInvalidRequest", err)
	}
	if len(repo.created) != 0 || len(vectors.ensured) != 0 {
		t.Error("bad template must be rejected before anything is persisted")
	}
}

func TestCreateRollsBackOnVectorIndexFailure(t *testing.T) {
	repo := newRecordingRepo()
	vectors := &indexRecordingVectorStore{ensureErr: errors.New("weaviate down")}
	keywords := &indexRecordingKeywordStore{}
	svc := collection.NewCollectionService(repo, nil, nil, nil, vectors, keywords)

	err := svc.Create(context.Background(), &collection.Collection{Name: "docs"})
	if err == nil {
		t.Fatal("Create() expected error when vector index provisioning fails")
	}

	if len(repo.deleted) != 1 {
		t.Errorf("collection row not rolled back: deleted %v", repo.deleted)
	}
	if len(keywords.ensured) != 0 {
		t.Errorf("keyword index provisioned despite vector failure: %v", keywords.ensured)
	}
}

func TestCreateRollsBackOnKeywordIndexFailure(t *testing.T) {
	repo := newRecordingRepo()
	vectors := &indexRecordingVectorStore{}
	keywords := &indexRecordingKeywordStore{ensureErr: errors.New("elasticsearch down")}
	svc := collection.NewCollectionService(repo, nil, nil, nil, vectors, keywords)

	err := svc.Create(context.Background(), &collection.Collection{Name: "docs"})
	if err == nil {
		t.Fatal("Create() expected error when keyword index provisioning fails")
	}

	if len(repo.created) != 1 {
		t.Fatalf("created %d collections, want 1 before rollback", len(repo.created))
	}
	index := collection.IndexName(repo.created[0].ID)
	if len(vectors.dropped) != 1 || vectors.dropped[0] != index {
		t.Errorf("vector index not rolled back: dropped %v, want [%s]", vectors.dropped, index)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != repo.created[0].ID {
		t.Errorf("collection row not rolled back: deleted %v", repo.deleted)
	}
}
