package ollama

import (
	"context"

	"github.com/tmc/langchaingo/textsplitter"

	core "raglayer/src/core/collection"
)

// Provider adapts the client to a fixed completion model and carries the
// text splitting used during ingestion.
type Provider struct {
	client    *Client
	modelName string
}

func NewProvider(client *Client, modelName string) *Provider {
	return &Provider{
		client:    client,
		modelName: modelName,
	}
}

// TextSplit splits text into overlapping chunks measured in estimated tokens
func (p *Provider) TextSplit(ctx context.Context, text string, chunkSize, chunkOverlap int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithLenFunc(core.EstimateTokenCount),
	)

	return splitter.SplitText(text)
}

// Reasoning generates a completion with the provider's model
func (p *Provider) Reasoning(ctx context.Context, system string, prompt string) (string, error) {
	return p.client.Generate(ctx, p.modelName, system, prompt, map[string]interface{}{
		"temperature": 0.7,
		"top_p":       0.9,
	})
}

// TokenLength estimates the token count of text
func (p *Provider) TokenLength(ctx context.Context, text string) (int, error) {
	return core.EstimateTokenCount(text), nil
}
