package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type PostgresJobRepository struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewPostgresJobRepository(db *gorm.DB) (*PostgresJobRepository, error) {
	node, err := snowflake.NewNode(4) // Node number 4 for jobs
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &PostgresJobRepository{
		db:        db,
		snowflake: node,
	}, nil
}

func (r *PostgresJobRepository) Create(ctx context.Context, job *Job) error {
	if job.ID == 0 {
		job.ID = r.snowflake.Generate().Int64()
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}

	result := r.db.WithContext(ctx).Create(job)
	if result.Error != nil {
		return fmt.Errorf("failed to create job: %w", result.Error)
	}

	return nil
}

func (r *PostgresJobRepository) Get(ctx context.Context, id int64) (*Job, error) {
	var job Job
	result := r.db.WithContext(ctx).First(&job, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", result.Error)
	}

	return &job, nil
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, id int64, status JobStatus, errStr *string) error {
	result := r.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status": status,
		"error":  errStr,
	})

	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.New("job not found")
	}

	return nil
}

// ListByStatus returns the most recent jobs in the given status
func (r *PostgresJobRepository) ListByStatus(ctx context.Context, status JobStatus, limit int) ([]Job, error) {
	var jobs []Job
	result := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at desc").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", result.Error)
	}
	return jobs, nil
}

// ListByDocument returns every job recorded for a document, newest first
func (r *PostgresJobRepository) ListByDocument(ctx context.Context, documentID int64) ([]Job, error) {
	var jobs []Job
	result := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at desc").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list jobs for document %d: %w", documentID, result.Error)
	}
	return jobs, nil
}
