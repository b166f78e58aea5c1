package collection

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCollectionNotFound = errors.New("Collection not found")
	ErrDocumentNotFound   = errors.New("Document not found")
	ErrEmptyDocument      = errors.New("Document has no extractable text")
	ErrInvalidRequest     = errors.New("Invalid request")
)

// Collection binds a set of documents to the models and the prompt template
// used to answer questions over them. SourceField names the document field
// the vector index is built from.
type Collection struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	EmbeddingModel  string    `json:"embeddingModel"`
	CompletionModel string    `json:"completionModel"`
	SourceField     string    `json:"sourceField"`
	PromptTemplate  string    `json:"promptTemplate,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CollectionRepository defines the metadata operations backing collections
type CollectionRepository interface {
	List(ctx context.Context, offset, limit int) ([]Collection, error)
	Get(ctx context.Context, id int64) (*Collection, error)
	Create(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, id int64) error
}

// CollectionService defines the interface for collection operations
type CollectionService interface {
	List(ctx context.Context, offset, limit int) ([]Collection, error)
	Get(ctx context.Context, id int64) (*Collection, error)
	Create(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, id int64) error
	GetSummary(ctx context.Context, id int64) (string, error)
}

// DocumentService defines the interface for document operations
type DocumentService interface {
	List(ctx context.Context, collectionID int64, offset, limit int) ([]DocumentInfo, error)
	Create(ctx context.Context, collectionID int64, file []byte, filename string) (*DocumentInfo, error)
	Delete(ctx context.Context, collectionID, documentID int64) error
}

// SearchService defines the interface for retrieval operations
type SearchService interface {
	Search(ctx context.Context, collectionID int64, spec RetrievalSpec) ([]SearchResultChunk, error)
}

// ChatService defines the interface for chat operations
type ChatService interface {
	GenerateCompletion(ctx context.Context, collectionID int64, spec RetrievalSpec, messages []ChatMessage) (*ChatMessage, error)
	GetHistory(ctx context.Context, sessionID string) ([]ChatMessage, error)
}

// SystemService defines the interface for system operations
type SystemService interface {
	CheckHealth(ctx context.Context) (*HealthStatus, error)
}

// DocumentInfo represents a stored document
type DocumentInfo struct {
	ID           int64     `json:"id"`
	CollectionID int64     `json:"collectionId"`
	Filename     string    `json:"filename"`
	ObjectURL    string    `json:"objectUrl"`
	Size         int64     `json:"size"`
	ChunkCount   int       `json:"chunkCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RetrievalSpec is the context-retrieval expression for search and chat:
// what to look for, where, and how.
type RetrievalSpec struct {
	Query       string  `json:"query"`
	DocumentIDs []int64 `json:"documentIds,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	Certainty   float64 `json:"certainty,omitempty"`
	Hybrid      bool    `json:"hybrid,omitempty"`
}

// SearchResultChunk represents a single chunk in search results
type SearchResultChunk struct {
	Content    string  `json:"content"`
	Summary    string  `json:"summary,omitempty"`
	Score      float64 `json:"score"`
	DocumentID int64   `json:"documentId"`
	ChunkID    int64   `json:"chunkId"`
	Order      int     `json:"order"`
}

// ChatMessage represents a message in chat history
type ChatMessage struct {
	SessionID string    `json:"sessionId"`
	MessageID string    `json:"messageId"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryStore persists chat exchanges per session
type HistoryStore interface {
	SaveMessage(ctx context.Context, msg *ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]ChatMessage, error)
	Ping(ctx context.Context) error
}

// IndexScheduler enqueues background indexing of an uploaded document
type IndexScheduler interface {
	ScheduleIndex(ctx context.Context, collectionID, documentID int64) error
}

// ComponentStatus represents the status of system components
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

// HealthStatus represents system health status
type HealthStatus struct {
	Status     string `json:"status"`
	Components struct {
		History ComponentStatus `json:"history"`
		Vector  ComponentStatus `json:"vector"`
		Keyword ComponentStatus `json:"keyword"`
		LLM     ComponentStatus `json:"llm"`
	} `json:"components"`
}

const (
	DefaultEmbeddingModel  = "nomic-embed-text"
	DefaultCompletionModel = "llama3.1"
	DefaultSourceField     = "content"
)
