package types

import "encoding/json"

// AssessmentStateVersion tags the serialized state shape so older rows can be
// migrated on read.
const AssessmentStateVersion = 1

// Phase names for the per-conversation state machine.
type AssessmentPhase string

const (
	PhaseRoute        AssessmentPhase = "route"
	PhaseAskMain      AssessmentPhase = "ask_main"
	PhaseAskFollowup  AssessmentPhase = "ask_followup"
	PhaseScore        AssessmentPhase = "score"
	PhaseTermComplete AssessmentPhase = "term_complete"
	PhaseDimComplete  AssessmentPhase = "dimension_complete"
	PhaseCompleted    AssessmentPhase = "completed"
)

// AssessmentState is the single versioned record of everything the
// orchestrator tracks mid-interview. Every field is always present after
// Normalize; consumers never probe for optionally-absent keys.
type AssessmentState struct {
	Version int             `json:"version"`
	Phase   AssessmentPhase `json:"phase"`

	CurrentDimension string `json:"current_dimension"`
	CurrentTerm      string `json:"current_term"`

	// Outstanding question, if any. Answers for any other question id are
	// rejected as invalid answer state.
	OutstandingQuestionID string `json:"outstanding_question_id"`
	OutstandingFollowup   bool   `json:"outstanding_followup"`
	FollowupIndex         int    `json:"followup_index"`

	AskedQuestionIDs []string `json:"asked_question_ids"`

	// Keyed by dimension/term (see TermKey).
	QuestionCounts map[string]int       `json:"question_counts"`
	EvidenceCounts map[string]int       `json:"evidence_counts"`
	PendingScores  map[string][]float64 `json:"pending_scores"`
	CompletedTerms []string             `json:"completed_terms"`

	// Routing lock window: while positive, routing away from
	// RouteLockDimension is suppressed unless the user explicitly changes
	// topic.
	RouteLockDimension string `json:"route_lock_dimension"`
	RouteLockTurnsLeft int    `json:"route_lock_turns_left"`
	LastRouteMethod    string `json:"last_route_method"`

	FreeTurns int `json:"free_turns"`
}

func NewAssessmentState() *AssessmentState {
	s := &AssessmentState{
		Version: AssessmentStateVersion,
		Phase:   PhaseRoute,
	}
	s.Normalize()
	return s
}

// Normalize defaults every collection so no field is ever nil.
func (s *AssessmentState) Normalize() {
	if s.Version == 0 {
		s.Version = AssessmentStateVersion
	}
	if s.Phase == "" {
		s.Phase = PhaseRoute
	}
	if s.AskedQuestionIDs == nil {
		s.AskedQuestionIDs = []string{}
	}
	if s.QuestionCounts == nil {
		s.QuestionCounts = map[string]int{}
	}
	if s.EvidenceCounts == nil {
		s.EvidenceCounts = map[string]int{}
	}
	if s.PendingScores == nil {
		s.PendingScores = map[string][]float64{}
	}
	if s.CompletedTerms == nil {
		s.CompletedTerms = []string{}
	}
}

// TermKey is the canonical map key for per-term counters.
func TermKey(dimension, term string) string {
	return dimension + "/" + term
}

func (s *AssessmentState) Asked(questionID string) bool {
	for _, id := range s.AskedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

func (s *AssessmentState) MarkAsked(questionID string) {
	if questionID == "" || s.Asked(questionID) {
		return
	}
	s.AskedQuestionIDs = append(s.AskedQuestionIDs, questionID)
}

func (s *AssessmentState) TermCompleted(dimension, term string) bool {
	key := TermKey(dimension, term)
	for _, k := range s.CompletedTerms {
		if k == key {
			return true
		}
	}
	return false
}

func (s *AssessmentState) MarkTermCompleted(dimension, term string) {
	if s.TermCompleted(dimension, term) {
		return
	}
	s.CompletedTerms = append(s.CompletedTerms, TermKey(dimension, term))
}

// DecodeAssessmentState parses raw JSON into a normalized state; empty input
// yields a fresh state.
func DecodeAssessmentState(raw []byte) (*AssessmentState, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NewAssessmentState(), nil
	}
	var s AssessmentState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

func (s *AssessmentState) Encode() ([]byte, error) {
	s.Normalize()
	return json.Marshal(s)
}
