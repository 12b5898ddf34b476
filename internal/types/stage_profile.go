package types

import (
	"time"

	"github.com/google/uuid"
)

// TermResult is the boundary shape for one term inside a dimension result.
type TermResult struct {
	Term       string      `json:"term"`
	Score      float64     `json:"score"`
	Confidence float64     `json:"confidence"`
	Method     ScoreMethod `json:"method"`
	Imputed    bool        `json:"imputed"`
}

// DimensionResult is the aggregated outcome for one dimension.
type DimensionResult struct {
	Dimension      string       `json:"dimension"`
	Score          float64      `json:"score"`
	CoverageRatio  float64      `json:"coverage_ratio"`
	Stage          Stage        `json:"stage"`
	TermScores     []TermResult `json:"term_scores"`
	UncoveredTerms []string     `json:"uncovered_terms"`
}

// StageProfile is the derived full-session summary. It is recomputed on
// demand and cached; it is never the source of truth for individual scores.
type StageProfile struct {
	ConversationID uuid.UUID         `json:"conversation_id"`
	Dimensions     []DimensionResult `json:"dimensions"`
	OverallScore   float64           `json:"overall_score"`
	OverallStage   Stage             `json:"overall_stage"`
	Suggestions    []string          `json:"suggestions"`
	GeneratedAt    time.Time         `json:"generated_at"`
}
