package steps

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/platform/openai"
	"github.com/yungbote/carebridge-backend/internal/platform/qdrant"
	"github.com/yungbote/carebridge-backend/internal/repos"
	"github.com/yungbote/carebridge-backend/internal/services"
)

// Routing method tags, in chain order.
const (
	RouteMethodExact      = "exact"
	RouteMethodSemantic   = "semantic"
	RouteMethodAIEnhanced = "ai_enhanced"
	RouteMethodFallback   = "fallback"
)

// CatalogNamespace is the qdrant namespace holding question-catalog
// embeddings used by the ai_enhanced routing strategy.
const CatalogNamespace = "catalog-questions"

// ErrNoQuestionAvailable signals that the current dimension's question pool
// is exhausted. It drives the orchestrator toward dimension completion and
// is never surfaced to callers as a failure.
var ErrNoQuestionAvailable = errors.New("no question available in dimension")

// ErrRoutingFailure signals that no routing strategy, fallback included,
// could produce a usable decision.
var ErrRoutingFailure = errors.New("no routing strategy produced a decision")

// RouteDecision is the intent router's output for one utterance. It is a
// session-scoped suggestion, never persisted as ground truth.
type RouteDecision struct {
	Dimension  string   `json:"dimension"`
	Term       string   `json:"term"`
	Confidence float64  `json:"confidence"`
	Method     string   `json:"method"`
	Keywords   []string `json:"keywords"`

	// Locked is set when the dimension lock window suppressed a
	// reassignment; Reason says why.
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

// ScoreResult is the uniform output of every scoring strategy.
type ScoreResult struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Rationale  string  `json:"rationale"`

	// Degraded marks a result the chain accepted only because every
	// stronger strategy failed.
	Degraded bool `json:"degraded,omitempty"`
}

// Config carries the tunable thresholds of the interview engine. Zero values
// are replaced by defaults via WithDefaults, so a zero Config is usable.
type Config struct {
	// Term completion.
	EvidenceThreshold   int
	MaxQuestionsPerTerm int

	// Dialogue mode transitions.
	FreeTurnMinimum   int
	TransitionCeiling int
	AIJudgmentMinTurn int

	// Routing.
	RouteLockWindow    int
	DefaultDimension   string
	DefaultTerm        string
	FallbackConfidence float64
}

func (c Config) WithDefaults() Config {
	if c.EvidenceThreshold <= 0 {
		c.EvidenceThreshold = 3
	}
	if c.MaxQuestionsPerTerm <= 0 {
		c.MaxQuestionsPerTerm = 4
	}
	if c.FreeTurnMinimum <= 0 {
		c.FreeTurnMinimum = 3
	}
	if c.TransitionCeiling <= 0 {
		c.TransitionCeiling = 8
	}
	if c.AIJudgmentMinTurn <= 0 {
		c.AIJudgmentMinTurn = 2
	}
	if c.RouteLockWindow <= 0 {
		c.RouteLockWindow = 2
	}
	if c.FallbackConfidence <= 0 {
		c.FallbackConfidence = 0.3
	}
	return c
}

// Deps is everything the respond pipeline needs. AI and Vec may be nil; every
// step that uses them degrades to its deterministic strategy.
type Deps struct {
	DB  *gorm.DB
	Log *logger.Logger

	AI  openai.Client
	Vec qdrant.VectorStore

	Catalog *catalog.Store
	Cfg     Config

	Conversations repos.ConversationRepo
	Messages      repos.MessageRepo
	TermScores    repos.TermScoreRepo
	DimScores     repos.DimensionScoreRepo
	AICalls       repos.AICallLogRepo

	// Retrieval serves the ai_enhanced routing tier's semantic search. Nil
	// makes that tier decline, same as a missing AI client.
	Retrieval services.RetrievalService

	Summaries services.SummaryService
	Notify    services.ConversationNotifier
}
