package services

import (
	"context"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/platform/openai"
	"github.com/yungbote/carebridge-backend/internal/platform/qdrant"
)

// Index kinds the retrieval service knows about. Each maps to its own vector
// namespace.
const (
	IndexCatalogQuestions = "catalog-questions"
	IndexCareKnowledge    = "care-knowledge"
)

// RetrievalHit is one search result at the service boundary.
type RetrievalHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// RetrievalService searches the vector indexes. It never returns an error to
/// callers: when the embedder or the store is unavailable the result is an
// empty slice, and downstream consumers run their template fallbacks.
type RetrievalService interface {
	Search(ctx context.Context, query string, topK int, indexKind string) []RetrievalHit
}

type retrievalService struct {
	log *logger.Logger
	ai  openai.Client
	vec qdrant.VectorStore
}

func NewRetrievalService(log *logger.Logger, ai openai.Client, vec qdrant.VectorStore) RetrievalService {
	return &retrievalService{
		log: log.With("service", "RetrievalService"),
		ai:  ai,
		vec: vec,
	}
}

func (s *retrievalService) Search(ctx context.Context, query string, topK int, indexKind string) []RetrievalHit {
	if s.ai == nil || s.vec == nil || query == "" {
		return []RetrievalHit{}
	}
	if topK <= 0 {
		topK = 5
	}

	embs, err := s.ai.Embed(ctx, []string{query})
	if err != nil || len(embs) == 0 {
		s.log.Warn("Retrieval embedding failed, returning empty result", "error", err)
		return []RetrievalHit{}
	}

	matches, err := s.vec.QueryMatches(ctx, indexKind, embs[0], topK, nil)
	if err != nil {
		s.log.Warn("Vector search failed, returning empty result", "index", indexKind, "error", err)
		return []RetrievalHit{}
	}

	hits := make([]RetrievalHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, RetrievalHit{ID: m.ID, Score: m.Score})
	}
	return hits
}
