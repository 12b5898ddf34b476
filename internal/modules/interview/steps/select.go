package steps

import (
	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// SelectQuestion picks the next unasked question for (dimension, term),
// widening within the dimension only:
//  1. exact (dimension, term) catalog entries;
//  2. approximate entries whose patterns reference the term;
//  3. any unasked entry in the dimension.
//
// It never crosses dimensions. ErrNoQuestionAvailable means the dimension's
// pool is exhausted, which the orchestrator treats as a completion signal,
// not a failure.
func SelectQuestion(snap *catalog.Snapshot, state *types.AssessmentState, dimension, term string) (*catalog.Question, error) {
	for _, q := range snap.Lookup(dimension, term) {
		if !state.Asked(q.ID) {
			return q, nil
		}
	}
	for _, q := range snap.ApproximateLookup(dimension, term) {
		if !state.Asked(q.ID) {
			return q, nil
		}
	}
	for _, q := range snap.ListByDimension(dimension) {
		if !state.Asked(q.ID) {
			return q, nil
		}
	}
	return nil, ErrNoQuestionAvailable
}
