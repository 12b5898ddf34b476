package steps

import (
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// Contextual modifier vocabularies. Hedging also costs confidence, not just
// score; a hedged option pick is a weaker signal than a flat one.
var (
	hedgingPhrases = []string{
		"maybe", "perhaps", "possibly", "i think", "i guess", "not sure",
		"not really sure", "i suppose", "kind of", "sort of", "probably",
	}
	qualificationPhrases = []string{
		"but", "however", "although", "though", "except",
	}
	emphasisPhrases = []string{
		"very", "really", "definitely", "absolutely", "extremely",
		"certainly", "totally",
	}
)

const (
	hedgingScoreDelta      = -0.5
	hedgingConfidenceDelta = -0.15
	qualificationDelta     = -0.3
	emphasisDelta          = 0.2
)

// scoreFromOption calibrates a score from a selected or text-matched catalog
// option. An explicit option score always wins; otherwise the option's
// ordinal position runs through the question kind's calibration curve. The
// strategy declines when no option can be resolved.
func scoreFromOption(q *catalog.Question, optionID, text string) (ScoreResult, bool) {
	if q == nil || len(q.Options) == 0 {
		return ScoreResult{}, false
	}

	idx := -1
	confidence := 0.0
	if optionID != "" {
		for i, opt := range q.Options {
			if opt.ID == optionID {
				idx = i
				confidence = 0.95
				break
			}
		}
	}
	if idx < 0 {
		idx = matchOptionLabel(q.Options, text)
		confidence = 0.85
	}
	if idx < 0 {
		return ScoreResult{}, false
	}
	opt := q.Options[idx]

	var score float64
	var basis string
	if opt.Score != nil {
		score = *opt.Score
		basis = "explicit option calibration"
	} else {
		score = curveScore(q.Kind, idx, len(q.Options))
		basis = fmt.Sprintf("%s curve position %d/%d", q.Kind, idx+1, len(q.Options))
	}

	score, confidence, mods := applyContextModifiers(score, confidence, text)
	rationale := fmt.Sprintf("option %q via %s", opt.Label, basis)
	if mods != "" {
		rationale += ", " + mods
	}

	return ScoreResult{
		Score:      types.ClampScore(score),
		Confidence: types.ClampConfidence(confidence),
		Method:     string(types.MethodOptionMatch),
		Rationale:  rationale,
	}, true
}

// matchOptionLabel finds an option whose label occurs in the free text,
// preferring the longest label so "almost always" beats "always".
func matchOptionLabel(options []catalog.Option, text string) int {
	best, bestLen := -1, 0
	for i, opt := range options {
		label := strings.TrimSpace(opt.Label)
		if label == "" {
			continue
		}
		if containsPhrase(text, label) && len(label) > bestLen {
			best, bestLen = i, len(label)
		}
	}
	return best
}

// curveScore maps an option's ordinal position through the question kind's
// calibration curve onto the 0-7 scale. Position is normalized so the last
// option always lands at 7 before modifiers.
func curveScore(kind catalog.QuestionKind, idx, total int) float64 {
	if total <= 1 {
		return types.ScoreMax
	}
	p := float64(idx) / float64(total-1)
	switch kind {
	case catalog.KindExpertise:
		// Expertise earns slowly: only near-top answers score high.
		return 7 * math.Pow(p, 1.4)
	case catalog.KindSafetyCritical:
		// Anything short of the top answer drops off steeply.
		return 7 * p * p
	case catalog.KindFrequency:
		// Frequency answers floor above zero: "rarely" is not "never".
		return math.Min(7, 7*(0.15+0.85*p))
	case catalog.KindSeverity:
		return 7 * math.Pow(p, 0.9)
	default:
		return 7 * p
	}
}

// applyContextModifiers adjusts a calibrated score for hedging,
// qualification, and emphasis language around the selected option.
func applyContextModifiers(score, confidence float64, text string) (float64, float64, string) {
	if strings.TrimSpace(text) == "" {
		return score, confidence, ""
	}
	var applied []string
	if p := containsAny(text, hedgingPhrases); p != "" {
		score += hedgingScoreDelta
		confidence += hedgingConfidenceDelta
		applied = append(applied, "hedged ("+p+")")
	}
	if p := containsAny(text, qualificationPhrases); p != "" {
		score += qualificationDelta
		applied = append(applied, "qualified ("+p+")")
	}
	if p := containsAny(text, emphasisPhrases); p != "" {
		score += emphasisDelta
		applied = append(applied, "emphasized ("+p+")")
	}
	return score, confidence, strings.Join(applied, ", ")
}
