package documentctrl

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Document struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	CollectionID int64     `gorm:"not null;index" json:"collection_id"`
	Filename     string    `gorm:"not null" json:"filename"`
	ObjectURL    string    `gorm:"not null;column:object_url" json:"object_url"` // bucket name + object name
	Size         int64     `gorm:"not null" json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DocumentService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	node, err := snowflake.NewNode(2) // Node number 2 for documents
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &DocumentService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *DocumentService) Create(ctx context.Context, collectionID int64, filename, objectURL string, size int64) (*Document, error) {
	doc := &Document{
		ID:           s.snowflake.Generate().Int64(),
		CollectionID: collectionID,
		Filename:     filename,
		ObjectURL:    objectURL,
		Size:         size,
	}

	result := s.db.WithContext(ctx).Create(doc)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create document: %w", result.Error)
	}

	return doc, nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	result := s.db.WithContext(ctx).First(&doc, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", result.Error)
	}
	return &doc, nil
}

func (s *DocumentService) ListByCollectionID(ctx context.Context, collectionID int64, offset, limit int) ([]Document, error) {
	var docs []Document
	result := s.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Offset(offset).Limit(limit).
		Order("created_at").
		Find(&docs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list documents: %w", result.Error)
	}
	return docs, nil
}

func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&Document{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	return nil
}
