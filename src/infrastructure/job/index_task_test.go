package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"raglayer/src/core/collection"
	"raglayer/src/infrastructure/job"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

type fakeCollections struct {
	collections map[int64]*collection.Collection
}

func (f *fakeCollections) List(ctx context.Context, offset, limit int) ([]collection.Collection, error) {
	return nil, nil
}

func (f *fakeCollections) Get(ctx context.Context, id int64) (*collection.Collection, error) {
	return f.collections[id], nil
}

func (f *fakeCollections) Create(ctx context.Context, c *collection.Collection) error { return nil }
func (f *fakeCollections) Delete(ctx context.Context, id int64) error                 { return nil }

type fakeDocuments struct {
	docs map[int64]*documentctrl.Document
}

func (f *fakeDocuments) GetByID(ctx context.Context, id int64) (*documentctrl.Document, error) {
	return f.docs[id], nil
}

type fakeChunks struct {
	chunks []chunkctrl.Chunk
}

func (f *fakeChunks) GetByDocumentID(ctx context.Context, documentID int64) ([]chunkctrl.Chunk, error) {
	return f.chunks, nil
}

type fakeObjects struct {
	contents map[string]string
}

func (f *fakeObjects) GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	content, ok := f.contents[bucketName+"/"+objectName]
	if !ok {
		return nil, fmt.Errorf("object not found: %s/%s", bucketName, objectName)
	}
	return []byte(content), nil
}

type fakeIndexLLM struct {
	describeErr error
}

func (f *fakeIndexLLM) Embed(ctx context.Context, model, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (f *fakeIndexLLM) Generate(ctx context.Context, model, system, prompt string, options map[string]interface{}) (string, error) {
	return "", nil
}

func (f *fakeIndexLLM) Describe(ctx context.Context, model, text string) (string, error) {
	if f.describeErr != nil {
		return "", f.describeErr
	}
	return "summary of " + text, nil
}

func (f *fakeIndexLLM) Models(ctx context.Context) ([]string, error) { return nil, nil }

// recordingVectorStore appends each call to a shared event log so tests can
// assert call ordering across stores.
type recordingVectorStore struct {
	events *[]string
	added  []collection.VectorObject
}

func (s *recordingVectorStore) record(event string) {
	*s.events = append(*s.events, event)
}

func (s *recordingVectorStore) Ping(ctx context.Context) error { return nil }

func (s *recordingVectorStore) EnsureIndex(ctx context.Context, index string) error {
	s.record("vector.EnsureIndex")
	return nil
}

func (s *recordingVectorStore) DeleteIndex(ctx context.Context, index string) error {
	s.record("vector.DeleteIndex")
	return nil
}

func (s *recordingVectorStore) AddBatch(ctx context.Context, index string, objects []collection.VectorObject) error {
	s.record("vector.AddBatch")
	s.added = append(s.added, objects...)
	return nil
}

func (s *recordingVectorStore) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	s.record("vector.RemoveDocument")
	return nil
}

func (s *recordingVectorStore) Count(ctx context.Context, index string) (int, error) { return 0, nil }

func (s *recordingVectorStore) Query(ctx context.Context, index string, vector []float32, q collection.VectorQuery) ([]collection.VectorHit, error) {
	return nil, nil
}

func (s *recordingVectorStore) QueryHybrid(ctx context.Context, index string, vector []float32, q collection.HybridQuery) ([]collection.VectorHit, error) {
	return nil, nil
}

type recordingKeywordStore struct {
	events  *[]string
	indexed []collection.KeywordDocument
}

func (s *recordingKeywordStore) record(event string) {
	*s.events = append(*s.events, event)
}

func (s *recordingKeywordStore) EnsureIndex(ctx context.Context, index string) error {
	s.record("keyword.EnsureIndex")
	return nil
}

func (s *recordingKeywordStore) DeleteIndex(ctx context.Context, index string) error {
	s.record("keyword.DeleteIndex")
	return nil
}

func (s *recordingKeywordStore) IndexBatch(ctx context.Context, index string, docs []collection.KeywordDocument) error {
	s.record("keyword.IndexBatch")
	s.indexed = append(s.indexed, docs...)
	return nil
}

func (s *recordingKeywordStore) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	s.record("keyword.RemoveDocument")
	return nil
}

func (s *recordingKeywordStore) Search(ctx context.Context, index string, query string, limit int) ([]collection.VectorHit, error) {
	return nil, nil
}

func (s *recordingKeywordStore) Ping(ctx context.Context) error { return nil }

func newIndexFixture(llm collection.LLMProvider) (*job.IndexTask, *recordingVectorStore, *recordingKeywordStore, *[]string) {
	events := &[]string{}
	vectors := &recordingVectorStore{events: events}
	keywords := &recordingKeywordStore{events: events}

	collections := &fakeCollections{collections: map[int64]*collection.Collection{
		1: {ID: 1, Name: "docs", EmbeddingModel: "nomic-embed-text", CompletionModel: "llama3.1"},
	}}
	documents := &fakeDocuments{docs: map[int64]*documentctrl.Document{
		42: {ID: 42, CollectionID: 1, Filename: "guide.md", ObjectURL: "documents/guide.md"},
	}}
	chunks := &fakeChunks{chunks: []chunkctrl.Chunk{
		{ID: 100, DocumentID: 42, ObjectURL: "chunks/a", Order: 0},
		{ID: 101, DocumentID: 42, ObjectURL: "chunks/b", Order: 1},
	}}
	objects := &fakeObjects{contents: map[string]string{
		"chunks/a": "first chunk",
		"chunks/b": "second chunk",
	}}

	task := job.NewIndexTask(collections, documents, chunks, objects, llm, vectors, keywords)
	return task, vectors, keywords, events
}

func indexPayload(t *testing.T, collectionID, documentID int64) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(job.IndexPayload{CollectionID: collectionID, DocumentID: documentID})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return payload
}

func eventIndex(events []string, name string) int {
	for i, e := range events {
		if e == name {
			return i
		}
	}
	return -1
}

func TestHandleIndexTaskClearsBeforeAdding(t *testing.T) {
	task, vectors, keywords, events := newIndexFixture(&fakeIndexLLM{})

	if err := task.HandleIndexTask(context.Background(), indexPayload(t, 1, 42)); err != nil {
		t.Fatalf("HandleIndexTask() unexpected error: %v", err)
	}

	// Uploading the same document again must replace its chunks, not
	// duplicate them: old entries are removed before the new batch lands.
	ordered := [][2]string{
		{"vector.EnsureIndex", "vector.RemoveDocument"},
		{"vector.RemoveDocument", "vector.AddBatch"},
		{"keyword.EnsureIndex", "keyword.RemoveDocument"},
		{"keyword.RemoveDocument", "keyword.IndexBatch"},
	}
	for _, pair := range ordered {
		before, after := eventIndex(*events, pair[0]), eventIndex(*events, pair[1])
		if before == -1 || after == -1 {
			t.Fatalf("missing events %v in %v", pair, *events)
		}
		if before >= after {
			t.Errorf("%s happened at %d, after %s at %d: %v", pair[0], before, pair[1], after, *events)
		}
	}

	if len(vectors.added) != 2 {
		t.Fatalf("added %d vector objects, want 2", len(vectors.added))
	}
	if vectors.added[0].Content != "first chunk" || vectors.added[0].Order != 0 {
		t.Errorf("first vector object = %+v, want content %q order 0", vectors.added[0], "first chunk")
	}
	if vectors.added[1].ChunkID != 101 || vectors.added[1].DocumentID != 42 {
		t.Errorf("second vector object = %+v, want chunk 101 document 42", vectors.added[1])
	}
	if vectors.added[0].Summary != "summary of first chunk" {
		t.Errorf("summary = %q, want described content", vectors.added[0].Summary)
	}

	if len(keywords.indexed) != 2 {
		t.Fatalf("indexed %d keyword documents, want 2", len(keywords.indexed))
	}
	if keywords.indexed[1].Content != "second chunk" || keywords.indexed[1].Order != 1 {
		t.Errorf("second keyword document = %+v, want content %q order 1", keywords.indexed[1], "second chunk")
	}
}

func TestHandleIndexTaskToleratesDescribeFailure(t *testing.T) {
	task, vectors, _, _ := newIndexFixture(&fakeIndexLLM{describeErr: errors.New("model overloaded")})

	if err := task.HandleIndexTask(context.Background(), indexPayload(t, 1, 42)); err != nil {
		t.Fatalf("HandleIndexTask() unexpected error: %v", err)
	}

	for _, obj := range vectors.added {
		if obj.Summary != "" {
			t.Errorf("summary = %q, want empty when describe fails", obj.Summary)
		}
	}
}

func TestHandleIndexTaskUnknownDocument(t *testing.T) {
	task, _, _, events := newIndexFixture(&fakeIndexLLM{})

	if err := task.HandleIndexTask(context.Background(), indexPayload(t, 1, 999)); err == nil {
		t.Fatal("HandleIndexTask() expected error for unknown document")
	}
	if len(*events) != 0 {
		t.Errorf("stores touched for unknown document: %v", *events)
	}
}

func TestHandleIndexTaskUnknownCollection(t *testing.T) {
	task, _, _, _ := newIndexFixture(&fakeIndexLLM{})

	if err := task.HandleIndexTask(context.Background(), indexPayload(t, 99, 42)); err == nil {
		t.Fatal("HandleIndexTask() expected error for unknown collection")
	}
}
