package job

import (
	"context"
	"encoding/json"
	"fmt"

	collection "raglayer/src/core/collection"
	"raglayer/src/log"
	"raglayer/src/metrics"
	"raglayer/src/storage/minioctrl"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

const TaskTypeIndex = "index"

type IndexPayload struct {
	CollectionID int64 `json:"collection_id"`
	DocumentID   int64 `json:"document_id"`
}

// DocumentGetter resolves the document a job targets. Satisfied by
// documentctrl.DocumentService.
type DocumentGetter interface {
	GetByID(ctx context.Context, id int64) (*documentctrl.Document, error)
}

// ChunkLister lists a document's chunks in order. Satisfied by
// chunkctrl.ChunkService.
type ChunkLister interface {
	GetByDocumentID(ctx context.Context, documentID int64) ([]chunkctrl.Chunk, error)
}

// ObjectGetter reads chunk content from object storage. Satisfied by
// minioctrl.MinioService.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}

// IndexTask embeds a document's chunks and writes them to the vector and
// keyword indexes. It is the listener behind document uploads: the upload
// returns once chunks are stored, indexing happens here.
type IndexTask struct {
	collections collection.CollectionRepository
	documents   DocumentGetter
	chunks      ChunkLister
	objects     ObjectGetter
	llm         collection.LLMProvider
	vectors     collection.VectorStore
	keywords    collection.KeywordStore
}

func NewIndexTask(
	collections collection.CollectionRepository,
	documents DocumentGetter,
	chunks ChunkLister,
	objects ObjectGetter,
	llm collection.LLMProvider,
	vectors collection.VectorStore,
	keywords collection.KeywordStore,
) *IndexTask {
	return &IndexTask{
		collections: collections,
		documents:   documents,
		chunks:      chunks,
		objects:     objects,
		llm:         llm,
		vectors:     vectors,
		keywords:    keywords,
	}
}

func (task *IndexTask) HandleIndexTask(ctx context.Context, payload json.RawMessage) error {
	var indexPayload IndexPayload
	if err := json.Unmarshal(payload, &indexPayload); err != nil {
		return fmt.Errorf("failed to unmarshal index payload: %w", err)
	}

	c, err := task.collections.Get(ctx, indexPayload.CollectionID)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}
	if c == nil {
		return fmt.Errorf("collection not found: %d", indexPayload.CollectionID)
	}

	doc, err := task.documents.GetByID(ctx, indexPayload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %d", indexPayload.DocumentID)
	}

	chunks, err := task.chunks.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	index := collection.IndexName(c.ID)
	if err := task.vectors.EnsureIndex(ctx, index); err != nil {
		return fmt.Errorf("failed to ensure vector index: %w", err)
	}
	if err := task.keywords.EnsureIndex(ctx, index); err != nil {
		return fmt.Errorf("failed to ensure keyword index: %w", err)
	}

	// Reindexing the same document must not duplicate chunks
	if err := task.vectors.RemoveDocument(ctx, index, doc.ID); err != nil {
		return fmt.Errorf("failed to clear existing vectors: %w", err)
	}
	if err := task.keywords.RemoveDocument(ctx, index, doc.ID); err != nil {
		return fmt.Errorf("failed to clear existing keyword documents: %w", err)
	}

	objects := make([]collection.VectorObject, 0, len(chunks))
	keywordDocs := make([]collection.KeywordDocument, 0, len(chunks))

	for _, chunk := range chunks {
		bucket, objectName, err := minioctrl.SplitObjectURL(chunk.ObjectURL)
		if err != nil {
			return fmt.Errorf("invalid chunk object URL: %w", err)
		}
		content, err := task.objects.GetObject(ctx, bucket, objectName)
		if err != nil {
			return fmt.Errorf("failed to get chunk content: %w", err)
		}

		summary, err := task.llm.Describe(ctx, c.CompletionModel, string(content))
		if err != nil {
			// summaries improve retrieval but indexing works without them
			log.Error(err, "failed to describe chunk", "chunk_id", chunk.ID)
			summary = ""
		}

		embedding, err := task.llm.Embed(ctx, c.EmbeddingModel, string(content))
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", chunk.ID, err)
		}

		objects = append(objects, collection.VectorObject{
			Vector:     embedding,
			DocumentID: doc.ID,
			ChunkID:    chunk.ID,
			Order:      chunk.Order,
			Content:    string(content),
			Summary:    summary,
		})
		keywordDocs = append(keywordDocs, collection.KeywordDocument{
			ChunkID:    chunk.ID,
			DocumentID: doc.ID,
			Order:      chunk.Order,
			Content:    string(content),
			Summary:    summary,
		})
	}

	if err := task.vectors.AddBatch(ctx, index, objects); err != nil {
		return fmt.Errorf("failed to add vectors: %w", err)
	}
	if err := task.keywords.IndexBatch(ctx, index, keywordDocs); err != nil {
		return fmt.Errorf("failed to index keyword documents: %w", err)
	}

	metrics.ChunksIndexed.Add(float64(len(objects)))
	log.Info("document indexed",
		"collection_id", c.ID,
		"document_id", doc.ID,
		"chunks", len(objects),
	)

	return nil
}
