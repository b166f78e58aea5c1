package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobStatus tracks a job through the indexing pipeline
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one queued background task. Index jobs also record the collection
// and document they target, so progress and failures can be queried per
// document without decoding payloads.
type Job struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	TaskType     string          `gorm:"not null;index" json:"task_type"`
	CollectionID int64           `gorm:"index" json:"collection_id,omitempty"`
	DocumentID   int64           `gorm:"index" json:"document_id,omitempty"`
	Payload      json.RawMessage `gorm:"type:jsonb" json:"payload"`
	Status       JobStatus       `gorm:"not null;index" json:"status"`
	Error        *string         `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobRepository defines the interface for job persistence
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id int64) (*Job, error)
	UpdateStatus(ctx context.Context, id int64, status JobStatus, err *string) error
	ListByStatus(ctx context.Context, status JobStatus, limit int) ([]Job, error)
	ListByDocument(ctx context.Context, documentID int64) ([]Job, error)
}
