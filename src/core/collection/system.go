package collection

import (
	"context"

	"raglayer/src/log"
)

type systemService struct {
	history  HistoryStore
	vectors  VectorStore
	keywords KeywordStore
	llm      LLMProvider
}

func NewSystemService(history HistoryStore, vectors VectorStore, keywords KeywordStore, llm LLMProvider) SystemService {
	return &systemService{
		history:  history,
		vectors:  vectors,
		keywords: keywords,
		llm:      llm,
	}
}

// CheckHealth probes every backing component. Overall status is "ok" only
// when all of them respond.
func (s *systemService) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Status: "ok"}

	probe := func(name string, err error) ComponentStatus {
		if err != nil {
			log.Error(err, "health check failed", "component", name)
			status.Status = "degraded"
			return StatusDown
		}
		return StatusUp
	}

	status.Components.History = probe("history", s.history.Ping(ctx))
	status.Components.Vector = probe("vector", s.vectors.Ping(ctx))
	status.Components.Keyword = probe("keyword", s.keywords.Ping(ctx))

	_, err := s.llm.Models(ctx)
	status.Components.LLM = probe("llm", err)

	return status, nil
}
