package collection

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"raglayer/src/log"
	"raglayer/src/storage/minioctrl"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

// DefaultChunkTokenBudget is the token ceiling per chunk before splitting
const DefaultChunkTokenBudget = 500

// TextSplitter splits text into overlapping pieces measured in tokens
type TextSplitter interface {
	TextSplit(ctx context.Context, text string, chunkSize, chunkOverlap int) ([]string, error)
}

// TextExtractor converts binary document formats to plain text
type TextExtractor interface {
	ExtractText(ctx context.Context, filename string, content []byte) (string, error)
}

type documentService struct {
	collections CollectionRepository
	documents   *documentctrl.DocumentService
	chunks      *chunkctrl.ChunkService
	objects     *minioctrl.MinioService
	extractor   TextExtractor
	splitter    TextSplitter
	vectors     VectorStore
	keywords    KeywordStore
	scheduler   IndexScheduler
}

// NewDocumentService creates a service handling document upload, chunking
// and deletion. Uploads store the raw file and its chunks, then hand the
// document to the scheduler for background indexing.
func NewDocumentService(
	collections CollectionRepository,
	documents *documentctrl.DocumentService,
	chunks *chunkctrl.ChunkService,
	objects *minioctrl.MinioService,
	extractor TextExtractor,
	splitter TextSplitter,
	vectors VectorStore,
	keywords KeywordStore,
	scheduler IndexScheduler,
) DocumentService {
	return &documentService{
		collections: collections,
		documents:   documents,
		chunks:      chunks,
		objects:     objects,
		extractor:   extractor,
		splitter:    splitter,
		vectors:     vectors,
		keywords:    keywords,
		scheduler:   scheduler,
	}
}

func (s *documentService) List(ctx context.Context, collectionID int64, offset, limit int) ([]DocumentInfo, error) {
	c, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCollectionNotFound
	}

	docs, err := s.documents.ListByCollectionID(ctx, collectionID, offset, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		count, err := s.chunks.CountByDocumentID(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, DocumentInfo{
			ID:           doc.ID,
			CollectionID: doc.CollectionID,
			Filename:     doc.Filename,
			ObjectURL:    doc.ObjectURL,
			Size:         doc.Size,
			ChunkCount:   count,
			CreatedAt:    doc.CreatedAt,
		})
	}

	return infos, nil
}

func (s *documentService) Create(ctx context.Context, collectionID int64, file []byte, filename string) (*DocumentInfo, error) {
	c, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCollectionNotFound
	}

	text, err := s.extract(ctx, filename, file)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	if err := s.objects.EnsureBucketExists(ctx, minioctrl.DocumentsBucket); err != nil {
		return nil, err
	}
	if err := s.objects.EnsureBucketExists(ctx, minioctrl.ChunksBucket); err != nil {
		return nil, err
	}

	objectKey := uuid.New().String() + "_" + filepath.Base(filename)
	if err := s.objects.PutObject(ctx, minioctrl.DocumentsBucket, objectKey, file); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	objectURL := minioctrl.ObjectURL(minioctrl.DocumentsBucket, objectKey)

	doc, err := s.documents.Create(ctx, collectionID, filepath.Base(filename), objectURL, int64(len(file)))
	if err != nil {
		return nil, err
	}

	pieces, err := s.split(ctx, text)
	if err != nil {
		return nil, err
	}

	for i, piece := range pieces {
		chunkKey := uuid.New().String()
		if err := s.objects.PutObject(ctx, minioctrl.ChunksBucket, chunkKey, []byte(piece)); err != nil {
			return nil, fmt.Errorf("failed to store chunk %d: %w", i, err)
		}
		if _, err := s.chunks.Create(ctx, doc.ID, minioctrl.ObjectURL(minioctrl.ChunksBucket, chunkKey), i); err != nil {
			return nil, err
		}
	}

	if err := s.scheduler.ScheduleIndex(ctx, collectionID, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to schedule indexing: %w", err)
	}

	log.Info("document uploaded",
		"collection_id", collectionID,
		"document_id", doc.ID,
		"filename", doc.Filename,
		"chunks", len(pieces),
	)

	return &DocumentInfo{
		ID:           doc.ID,
		CollectionID: doc.CollectionID,
		Filename:     doc.Filename,
		ObjectURL:    doc.ObjectURL,
		Size:         doc.Size,
		ChunkCount:   len(pieces),
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// extract returns plain text for the upload, going through the extraction
// service for binary formats and treating everything valid UTF-8 as text
func (s *documentService) extract(ctx context.Context, filename string, file []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown", ".rst":
		return string(file), nil
	}

	if s.extractor != nil {
		text, err := s.extractor.ExtractText(ctx, filename, file)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
		return text, nil
	}

	if !utf8.Valid(file) {
		return "", fmt.Errorf("%w: binary upload needs the extraction service", ErrInvalidRequest)
	}
	return string(file), nil
}

func (s *documentService) split(ctx context.Context, text string) ([]string, error) {
	tokens := EstimateTokenCount(text)
	chunkSize := ChunkSizeForBudget(tokens, DefaultChunkTokenBudget)
	overlap := chunkSize / 10

	pieces, err := s.splitter.TextSplit(ctx, text, chunkSize, overlap)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	return pieces, nil
}

func (s *documentService) Delete(ctx context.Context, collectionID, documentID int64) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil || doc.CollectionID != collectionID {
		return ErrDocumentNotFound
	}

	index := IndexName(collectionID)
	if err := s.vectors.RemoveDocument(ctx, index, documentID); err != nil {
		return fmt.Errorf("failed to remove vectors: %w", err)
	}
	if err := s.keywords.RemoveDocument(ctx, index, documentID); err != nil {
		return fmt.Errorf("failed to remove keyword documents: %w", err)
	}

	if err := removeDocumentData(ctx, s.objects, s.chunks, s.documents, doc); err != nil {
		return err
	}

	log.Info("document deleted", "collection_id", collectionID, "document_id", documentID)
	return nil
}
