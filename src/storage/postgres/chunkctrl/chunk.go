package chunkctrl

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Chunk struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	DocumentID int64     `gorm:"not null;index" json:"document_id"`
	ObjectURL  string    `gorm:"not null;column:object_url" json:"object_url"` // bucket name + object name
	Order      int       `gorm:"not null;column:chunk_order" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ChunkService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewChunkService(db *gorm.DB) (*ChunkService, error) {
	node, err := snowflake.NewNode(3) // Node number 3 for chunks
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &ChunkService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *ChunkService) Create(ctx context.Context, documentID int64, objectURL string, order int) (*Chunk, error) {
	chunk := &Chunk{
		ID:         s.snowflake.Generate().Int64(),
		DocumentID: documentID,
		ObjectURL:  objectURL,
		Order:      order,
	}

	result := s.db.WithContext(ctx).Create(chunk)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create chunk: %w", result.Error)
	}

	return chunk, nil
}

func (s *ChunkService) GetByID(ctx context.Context, id int64) (*Chunk, error) {
	var chunk Chunk
	result := s.db.WithContext(ctx).First(&chunk, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chunk: %w", result.Error)
	}
	return &chunk, nil
}

func (s *ChunkService) GetByDocumentID(ctx context.Context, documentID int64) ([]Chunk, error) {
	var chunks []Chunk
	result := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_order").
		Find(&chunks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", result.Error)
	}
	return chunks, nil
}

func (s *ChunkService) CountByDocumentID(ctx context.Context, documentID int64) (int, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&Chunk{}).Where("document_id = ?", documentID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", result.Error)
	}
	return int(count), nil
}

func (s *ChunkService) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	result := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&Chunk{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete chunks: %w", result.Error)
	}
	return nil
}
