package steps

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/types"
)

func termScore(convID uuid.UUID, dim, term string, score float64) *types.TermScore {
	return &types.TermScore{
		ConversationID: convID,
		Dimension:      dim,
		Term:           term,
		Score:          score,
		Confidence:     0.8,
		Method:         types.MethodRuleBased,
		SampleCount:    2,
	}
}

func TestCoverageRatioFullIffNoImputation(t *testing.T) {
	snap := newTestSnapshot(t)
	convID := uuid.New()

	full := AggregateDimension(snap, "physiological", []*types.TermScore{
		termScore(convID, "physiological", "breathing", 5),
		termScore(convID, "physiological", "sleep", 3),
	})
	if full.CoverageRatio != 1.0 {
		t.Fatalf("all terms covered, expected ratio 1.0, got %f", full.CoverageRatio)
	}
	if len(full.UncoveredTerms) != 0 {
		t.Fatalf("full coverage must impute nothing: %v", full.UncoveredTerms)
	}
	for _, ts := range full.TermScores {
		if ts.Imputed {
			t.Fatalf("term %s flagged imputed under full coverage", ts.Term)
		}
	}

	partial := AggregateDimension(snap, "physiological", []*types.TermScore{
		termScore(convID, "physiological", "breathing", 5),
	})
	if partial.CoverageRatio >= 1.0 {
		t.Fatalf("missing term must lower coverage, got %f", partial.CoverageRatio)
	}
	imputed := 0
	for _, ts := range partial.TermScores {
		if ts.Imputed {
			imputed++
			if ts.Term != "sleep" {
				t.Fatalf("wrong term imputed: %s", ts.Term)
			}
		}
	}
	if imputed != 1 {
		t.Fatalf("expected exactly one imputed term, got %d", imputed)
	}
}

func TestImputationNeverZeroesMissingTerms(t *testing.T) {
	snap := newTestSnapshot(t)
	convID := uuid.New()

	result := AggregateDimension(snap, "physiological", []*types.TermScore{
		termScore(convID, "physiological", "breathing", 6),
	})
	for _, ts := range result.TermScores {
		if ts.Imputed && ts.Score == 0 {
			t.Fatalf("imputed term %s scored zero", ts.Term)
		}
	}
	// Earlier dimension: imputed value sits at or slightly above the mean.
	for _, ts := range result.TermScores {
		if ts.Imputed && ts.Score < 6 {
			t.Fatalf("rank-1 dimension imputes at or above the mean, got %f", ts.Score)
		}
	}
}

func TestAggregateEmptyDimension(t *testing.T) {
	snap := newTestSnapshot(t)
	result := AggregateDimension(snap, "safety", nil)
	if result.CoverageRatio != 0 {
		t.Fatalf("no scores means zero coverage, got %f", result.CoverageRatio)
	}
	if result.Score != 0 {
		t.Fatalf("no real scores must not invent an aggregate, got %f", result.Score)
	}
}

func TestStageBands(t *testing.T) {
	cases := []struct {
		score float64
		want  types.Stage
	}{
		{7.0, types.StageMinimal},
		{5.6, types.StageMinimal},  // exactly 80%
		{5.59, types.StageMild},    // just under 80%
		{4.2, types.StageMild},     // exactly 60%
		{2.8, types.StageModerate}, // exactly 40%
		{1.4, types.StageSignificant},
		{1.39, types.StageSevere},
		{0, types.StageSevere},
	}
	for _, tc := range cases {
		if got := StageFor(tc.score); got != tc.want {
			t.Fatalf("StageFor(%f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

// Monotonicity: sweeping the score upward never moves the stage to a worse
// band.
func TestStageMappingMonotonic(t *testing.T) {
	rank := map[types.Stage]int{
		types.StageSevere:      0,
		types.StageSignificant: 1,
		types.StageModerate:    2,
		types.StageMild:        3,
		types.StageMinimal:     4,
	}
	prev := -1
	for s := 0.0; s <= 7.0; s += 0.01 {
		r := rank[StageFor(s)]
		if r < prev {
			t.Fatalf("stage regressed at score %f", s)
		}
		prev = r
	}
}
