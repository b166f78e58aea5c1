package collection

import (
	"context"
	"fmt"
	"strings"

	"raglayer/src/chatflow"
	"raglayer/src/log"
	"raglayer/src/storage/minioctrl"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

const listPageSize = 100

type collectionService struct {
	repo      CollectionRepository
	documents *documentctrl.DocumentService
	chunks    *chunkctrl.ChunkService
	objects   *minioctrl.MinioService
	vectors   VectorStore
	keywords  KeywordStore
}

// NewCollectionService creates a service managing collection lifecycle.
// Creating a collection provisions its vector and keyword indexes, deleting
// one tears down the indexes together with every stored document.
func NewCollectionService(
	repo CollectionRepository,
	documents *documentctrl.DocumentService,
	chunks *chunkctrl.ChunkService,
	objects *minioctrl.MinioService,
	vectors VectorStore,
	keywords KeywordStore,
) CollectionService {
	return &collectionService{
		repo:      repo,
		documents: documents,
		chunks:    chunks,
		objects:   objects,
		vectors:   vectors,
		keywords:  keywords,
	}
}

func (s *collectionService) List(ctx context.Context, offset, limit int) ([]Collection, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *collectionService) Get(ctx context.Context, id int64) (*Collection, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCollectionNotFound
	}
	return c, nil
}

func (s *collectionService) Create(ctx context.Context, c *Collection) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidRequest)
	}

	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.CompletionModel == "" {
		c.CompletionModel = DefaultCompletionModel
	}
	if c.SourceField == "" {
		c.SourceField = DefaultSourceField
	}

	if c.PromptTemplate != "" {
		if err := chatflow.ValidateTemplate(c.PromptTemplate); err != nil {
			return fmt.Errorf("%w: prompt template: %v", ErrInvalidRequest, err)
		}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	index := IndexName(c.ID)
	if err := s.vectors.EnsureIndex(ctx, index); err != nil {
		if rbErr := s.repo.Delete(ctx, c.ID); rbErr != nil {
			log.Error(rbErr, "failed to roll back collection after index error", "collection_id", c.ID)
		}
		return fmt.Errorf("failed to provision vector index: %w", err)
	}
	if err := s.keywords.EnsureIndex(ctx, index); err != nil {
		if rbErr := s.vectors.DeleteIndex(ctx, index); rbErr != nil {
			log.Error(rbErr, "failed to roll back vector index", "collection_id", c.ID)
		}
		if rbErr := s.repo.Delete(ctx, c.ID); rbErr != nil {
			log.Error(rbErr, "failed to roll back collection after index error", "collection_id", c.ID)
		}
		return fmt.Errorf("failed to provision keyword index: %w", err)
	}

	log.Info("collection created", "collection_id", c.ID, "name", c.Name)
	return nil
}

func (s *collectionService) Delete(ctx context.Context, id int64) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCollectionNotFound
	}

	index := IndexName(id)
	if err := s.vectors.DeleteIndex(ctx, index); err != nil {
		log.Error(err, "failed to delete vector index", "collection_id", id)
	}
	if err := s.keywords.DeleteIndex(ctx, index); err != nil {
		log.Error(err, "failed to delete keyword index", "collection_id", id)
	}

	if err := s.deleteStoredDocuments(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	log.Info("collection deleted", "collection_id", id)
	return nil
}

// deleteStoredDocuments removes every document row, chunk row and stored
// object belonging to a collection
func (s *collectionService) deleteStoredDocuments(ctx context.Context, collectionID int64) error {
	for {
		docs, err := s.documents.ListByCollectionID(ctx, collectionID, 0, listPageSize)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}

		for _, doc := range docs {
			if err := removeDocumentData(ctx, s.objects, s.chunks, s.documents, &doc); err != nil {
				return err
			}
		}
	}
}

func (s *collectionService) GetSummary(ctx context.Context, id int64) (string, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", ErrCollectionNotFound
	}

	docCount := 0
	offset := 0
	for {
		docs, err := s.documents.ListByCollectionID(ctx, id, offset, listPageSize)
		if err != nil {
			return "", fmt.Errorf("failed to list documents: %w", err)
		}
		docCount += len(docs)
		if len(docs) < listPageSize {
			break
		}
		offset += listPageSize
	}

	chunkCount, err := s.vectors.Count(ctx, IndexName(id))
	if err != nil {
		return "", fmt.Errorf("failed to count indexed chunks: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Collection %q (id %d)\n", c.Name, c.ID)
	if c.Description != "" {
		fmt.Fprintf(&sb, "%s\n", c.Description)
	}
	fmt.Fprintf(&sb, "Documents: %d, indexed chunks: %d\n", docCount, chunkCount)
	fmt.Fprintf(&sb, "Embedding model: %s, completion model: %s", c.EmbeddingModel, c.CompletionModel)

	return sb.String(), nil
}

// removeDocumentData deletes a document's stored objects and database rows.
// Shared by document deletion and collection teardown.
func removeDocumentData(
	ctx context.Context,
	objects *minioctrl.MinioService,
	chunks *chunkctrl.ChunkService,
	documents *documentctrl.DocumentService,
	doc *documentctrl.Document,
) error {
	chunkRows, err := chunks.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	for _, chunk := range chunkRows {
		bucket, key, err := minioctrl.SplitObjectURL(chunk.ObjectURL)
		if err != nil {
			log.Error(err, "skipping chunk with malformed object URL", "chunk_id", chunk.ID)
			continue
		}
		if err := objects.DeleteObject(ctx, bucket, key); err != nil {
			return fmt.Errorf("failed to delete chunk object: %w", err)
		}
	}

	bucket, key, err := minioctrl.SplitObjectURL(doc.ObjectURL)
	if err != nil {
		log.Error(err, "skipping document with malformed object URL", "document_id", doc.ID)
	} else if err := objects.DeleteObject(ctx, bucket, key); err != nil {
		return fmt.Errorf("failed to delete document object: %w", err)
	}

	if err := chunks.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := documents.Delete(ctx, doc.ID); err != nil {
		return err
	}

	return nil
}
