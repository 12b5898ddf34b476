package steps

import (
	"errors"
	"testing"

	"github.com/yungbote/carebridge-backend/internal/types"
)

func TestSelectExactBeforeApproximate(t *testing.T) {
	snap := newTestSnapshot(t)
	state := types.NewAssessmentState()

	q, err := SelectQuestion(snap, state, "physiological", "breathing")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if q.ID != "q-breath-main" {
		t.Fatalf("expected first exact entry, got %s", q.ID)
	}

	state.MarkAsked("q-breath-main")
	q, err = SelectQuestion(snap, state, "physiological", "breathing")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if q.ID != "q-breath-night" {
		t.Fatalf("expected second exact entry, got %s", q.ID)
	}
}

func TestSelectWidensWithinDimension(t *testing.T) {
	snap := newTestSnapshot(t)
	state := types.NewAssessmentState()
	state.MarkAsked("q-breath-main")
	state.MarkAsked("q-breath-night")

	// Both breathing questions are spent; the sleep question is still in
	// the dimension and gets picked up.
	q, err := SelectQuestion(snap, state, "physiological", "breathing")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if q.Dimension != "physiological" {
		t.Fatalf("selector crossed dimensions to %s", q.Dimension)
	}
	if q.ID != "q-sleep-main" {
		t.Fatalf("expected in-dimension widening to q-sleep-main, got %s", q.ID)
	}
}

func TestSelectNeverCrossesDimensions(t *testing.T) {
	snap := newTestSnapshot(t)
	state := types.NewAssessmentState()
	state.MarkAsked("q-breath-main")
	state.MarkAsked("q-breath-night")
	state.MarkAsked("q-sleep-main")

	// The safety dimension still has an unasked question, but exhausting
	// physiological must signal completion, not borrow it.
	_, err := SelectQuestion(snap, state, "physiological", "breathing")
	if !errors.Is(err, ErrNoQuestionAvailable) {
		t.Fatalf("expected ErrNoQuestionAvailable, got %v", err)
	}
}
