package collection_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	collection "raglayer/src/core/collection"
)

type fakeSearch struct {
	results []collection.SearchResultChunk
	spec    collection.RetrievalSpec
}

func (f *fakeSearch) Search(ctx context.Context, collectionID int64, spec collection.RetrievalSpec) ([]collection.SearchResultChunk, error) {
	f.spec = spec
	return f.results, nil
}

type fakeChatLLM struct {
	answer string
	prompt string
}

func (f *fakeChatLLM) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeChatLLM) Generate(ctx context.Context, model, system, prompt string, options map[string]interface{}) (string, error) {
	f.prompt = prompt
	return f.answer, nil
}

func (f *fakeChatLLM) Describe(ctx context.Context, model, text string) (string, error) {
	return "", nil
}

func (f *fakeChatLLM) Models(ctx context.Context) ([]string, error) { return nil, nil }

type fakeHistory struct {
	saved []collection.ChatMessage
}

func (f *fakeHistory) SaveMessage(ctx context.Context, msg *collection.ChatMessage) error {
	f.saved = append(f.saved, *msg)
	return nil
}

func (f *fakeHistory) ListMessages(ctx context.Context, sessionID string) ([]collection.ChatMessage, error) {
	return f.saved, nil
}

func (f *fakeHistory) Ping(ctx context.Context) error { return nil }

func TestGenerateCompletionRequiresMessages(t *testing.T) {
	svc := collection.NewChatService(newTestRepo(), &fakeSearch{}, &fakeChatLLM{}, &fakeHistory{})

	_, err := svc.GenerateCompletion(context.Background(), 1, collection.RetrievalSpec{}, nil)
	if !errors.Is(err, collection.ErrInvalidRequest) {
		t.Errorf("GenerateCompletion() error = %v, want ErrInvalidRequest", err)
	}
}

func TestGenerateCompletionLastMessageMustBeUser(t *testing.T) {
	svc := collection.NewChatService(newTestRepo(), &fakeSearch{}, &fakeChatLLM{}, &fakeHistory{})

	messages := []collection.ChatMessage{
		{Role: "assistant", Content: "hello"},
	}

	_, err := svc.GenerateCompletion(context.Background(), 1, collection.RetrievalSpec{}, messages)
	if !errors.Is(err, collection.ErrInvalidRequest) {
		t.Errorf("GenerateCompletion() error = %v, want ErrInvalidRequest", err)
	}
}

func TestGenerateCompletion(t *testing.T) {
	search := &fakeSearch{results: []collection.SearchResultChunk{
		{Content: "grounding text", DocumentID: 5, ChunkID: 50},
	}}
	llm := &fakeChatLLM{answer: "grounded answer"}
	history := &fakeHistory{}
	svc := collection.NewChatService(newTestRepo(), search, llm, history)

	messages := []collection.ChatMessage{
		{SessionID: "s1", Role: "user", Content: "earlier"},
		{SessionID: "s1", Role: "assistant", Content: "noted"},
		{SessionID: "s1", Role: "user", Content: "what does the doc say?"},
	}

	response, err := svc.GenerateCompletion(context.Background(), 1, collection.RetrievalSpec{}, messages)
	if err != nil {
		t.Fatalf("GenerateCompletion() unexpected error: %v", err)
	}

	if response.Content != "grounded answer" {
		t.Errorf("response content = %q, want %q", response.Content, "grounded answer")
	}
	if response.Role != "assistant" {
		t.Errorf("response role = %q, want assistant", response.Role)
	}
	if response.MessageID == "" {
		t.Error("response message id is empty")
	}

	// the latest user message becomes the retrieval query
	if search.spec.Query != "what does the doc say?" {
		t.Errorf("retrieval query = %q, want last user message", search.spec.Query)
	}

	if !strings.Contains(llm.prompt, "grounding text") {
		t.Errorf("prompt missing retrieved context:\n%s", llm.prompt)
	}
	if !strings.Contains(llm.prompt, "user: earlier") {
		t.Errorf("prompt missing history:\n%s", llm.prompt)
	}

	// user question and assistant answer are both persisted
	if len(history.saved) != 2 {
		t.Fatalf("saved %d messages, want 2", len(history.saved))
	}
	if history.saved[0].Role != "user" || history.saved[1].Role != "assistant" {
		t.Errorf("saved roles = %q, %q", history.saved[0].Role, history.saved[1].Role)
	}
}

func TestGenerateCompletionExplicitQuery(t *testing.T) {
	search := &fakeSearch{}
	svc := collection.NewChatService(newTestRepo(), search, &fakeChatLLM{answer: "ok"}, &fakeHistory{})

	messages := []collection.ChatMessage{
		{Role: "user", Content: "summarize"},
	}
	spec := collection.RetrievalSpec{Query: "deployment guide"}

	if _, err := svc.GenerateCompletion(context.Background(), 1, spec, messages); err != nil {
		t.Fatalf("GenerateCompletion() unexpected error: %v", err)
	}
	if search.spec.Query != "deployment guide" {
		t.Errorf("retrieval query = %q, want explicit spec query", search.spec.Query)
	}
}

func TestGetHistoryRequiresSession(t *testing.T) {
	svc := collection.NewChatService(newTestRepo(), &fakeSearch{}, &fakeChatLLM{}, &fakeHistory{})

	if _, err := svc.GetHistory(context.Background(), ""); !errors.Is(err, collection.ErrInvalidRequest) {
		t.Errorf("GetHistory() error = %v, want ErrInvalidRequest", err)
	}
}
