package collectionctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	core "raglayer/src/core/collection"
)

type collectionRecord struct {
	ID              int64     `gorm:"primaryKey"`
	Name            string    `gorm:"not null;uniqueIndex"`
	Description     string    `gorm:""`
	EmbeddingModel  string    `gorm:"not null"`
	CompletionModel string    `gorm:"not null"`
	SourceField     string    `gorm:"not null"`
	PromptTemplate  string    `gorm:""`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (collectionRecord) TableName() string {
	return "collections"
}

// AutoMigrate creates or updates the collections table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&collectionRecord{})
}

// CollectionService implements core.CollectionRepository on PostgreSQL
type CollectionService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewCollectionService(db *gorm.DB) (*CollectionService, error) {
	node, err := snowflake.NewNode(1) // Node number 1 for collections
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &CollectionService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *CollectionService) List(ctx context.Context, offset, limit int) ([]core.Collection, error) {
	var records []collectionRecord
	result := s.db.WithContext(ctx).Offset(offset).Limit(limit).Order("created_at").Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list collections: %w", result.Error)
	}

	collections := make([]core.Collection, len(records))
	for i, r := range records {
		collections[i] = toDomain(r)
	}
	return collections, nil
}

func (s *CollectionService) Get(ctx context.Context, id int64) (*core.Collection, error) {
	var record collectionRecord
	result := s.db.WithContext(ctx).First(&record, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", result.Error)
	}

	c := toDomain(record)
	return &c, nil
}

func (s *CollectionService) Create(ctx context.Context, c *core.Collection) error {
	if c.ID == 0 {
		c.ID = s.snowflake.Generate().Int64()
	}

	record := collectionRecord{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		EmbeddingModel:  c.EmbeddingModel,
		CompletionModel: c.CompletionModel,
		SourceField:     c.SourceField,
		PromptTemplate:  c.PromptTemplate,
	}
	result := s.db.WithContext(ctx).Create(&record)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: collection name %q is already taken", core.ErrInvalidRequest, c.Name)
		}
		return fmt.Errorf("failed to create collection: %w", result.Error)
	}

	c.CreatedAt = record.CreatedAt
	c.UpdatedAt = record.UpdatedAt
	return nil
}

func (s *CollectionService) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&collectionRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection: %w", result.Error)
	}
	return nil
}

// isUniqueViolation reports whether the error comes from the unique index
// on the collection name. Checked as both the gorm translated error and
// the raw PostgreSQL error code, since error translation depends on the
// dialector configuration.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toDomain(r collectionRecord) core.Collection {
	return core.Collection{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		EmbeddingModel:  r.EmbeddingModel,
		CompletionModel: r.CompletionModel,
		SourceField:     r.SourceField,
		PromptTemplate:  r.PromptTemplate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
