package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"raglayer/src/chatflow"
	"raglayer/src/log"
	"raglayer/src/metrics"
)

type chatService struct {
	collections CollectionRepository
	search      SearchService
	llm         LLMProvider
	history     HistoryStore
}

// NewChatService creates the service answering questions over a collection.
// Each completion retrieves context for the latest user message, renders the
// collection's prompt template and persists both sides of the exchange.
func NewChatService(
	collections CollectionRepository,
	search SearchService,
	llm LLMProvider,
	history HistoryStore,
) ChatService {
	return &chatService{
		collections: collections,
		search:      search,
		llm:         llm,
		history:     history,
	}
}

// modelReasoner adapts the LLM provider to the chatflow reasoner for one
// collection's completion model
type modelReasoner struct {
	llm   LLMProvider
	model string
}

func (r *modelReasoner) Reasoning(ctx context.Context, system string, prompt string) (string, error) {
	return r.llm.Generate(ctx, r.model, system, prompt, map[string]interface{}{
		"temperature": 0.7,
		"top_p":       0.9,
	})
}

func (s *chatService) GenerateCompletion(ctx context.Context, collectionID int64, spec RetrievalSpec, messages []ChatMessage) (*ChatMessage, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: at least one message is required", ErrInvalidRequest)
	}

	last := messages[len(messages)-1]
	if last.Role != "user" {
		return nil, fmt.Errorf("%w: last message must come from the user", ErrInvalidRequest)
	}
	if strings.TrimSpace(last.Content) == "" {
		return nil, fmt.Errorf("%w: last message is empty", ErrInvalidRequest)
	}

	c, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCollectionNotFound
	}

	if spec.Query == "" {
		spec.Query = last.Content
	}

	start := time.Now()

	results, err := s.search.Search(ctx, collectionID, spec)
	if err != nil {
		return nil, err
	}

	chunks := make([]chatflow.ContextChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, chatflow.ContextChunk{
			Source:  fmt.Sprintf("document %d", r.DocumentID),
			Content: r.Content,
			Summary: r.Summary,
		})
	}

	history := make([]chatflow.Exchange, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		history = append(history, chatflow.Exchange{Role: msg.Role, Content: msg.Content})
	}

	flow := chatflow.New(
		&modelReasoner{llm: s.llm, model: c.CompletionModel},
		chatflow.WithPromptTemplate(c.PromptTemplate),
	)

	answer, err := flow.Answer(ctx, last.Content, chunks, history)
	if err != nil {
		return nil, err
	}

	metrics.Completions.Inc()
	metrics.CompletionDuration.Observe(time.Since(start).Seconds())

	response := &ChatMessage{
		SessionID: last.SessionID,
		MessageID: uuid.New().String(),
		Content:   answer,
		Role:      "assistant",
		CreatedAt: time.Now(),
	}

	if last.SessionID != "" {
		if last.MessageID == "" {
			last.MessageID = uuid.New().String()
		}
		if err := s.history.SaveMessage(ctx, &last); err != nil {
			log.Error(err, "failed to save user message", "session_id", last.SessionID)
		}
		if err := s.history.SaveMessage(ctx, response); err != nil {
			log.Error(err, "failed to save assistant message", "session_id", last.SessionID)
		}
	}

	log.Info("completion generated",
		"collection_id", collectionID,
		"session_id", last.SessionID,
		"context_chunks", len(chunks),
		"duration", time.Since(start),
	)

	return response, nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidRequest)
	}
	return s.history.ListMessages(ctx, sessionID)
}
