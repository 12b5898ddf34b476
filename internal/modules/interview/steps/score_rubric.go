package steps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/carebridge-backend/internal/types"
)

// Rubric axes, each scored 0-4 from its keyword family. The total (0-16) is
// normalized onto the shared 0-7 scale so rubric scores compare with
// option-calibrated ones.
const (
	axisAwareness     = "awareness"
	axisUnderstanding = "understanding"
	axisCoping        = "coping"
	axisAction        = "action"

	axisMax        = 4
	rubricRawMax   = 16.0
	rubricStrongOK = 0.55
	rubricWeakConf = 0.25
)

var rubricAxes = map[string][]string{
	axisAwareness: {
		"notice", "noticed", "aware", "realize", "realized", "recognize",
		"pay attention", "track", "monitor", "keep an eye", "symptom",
		"symptoms", "feel", "feeling",
	},
	axisUnderstanding: {
		"diagnosis", "condition", "disease", "progression", "stage",
		"doctor explained", "because", "means", "caused", "causes",
		"understand", "prognosis", "treatment", "medication", "side effect",
		"side effects",
	},
	axisCoping: {
		"oxygen", "wheelchair", "walker", "equipment", "device", "nurse",
		"caregiver", "therapist", "support group", "family helps", "routine",
		"adapted", "adjust", "adjusted", "manage", "managing", "cope",
		"coping", "help me",
	},
	axisAction: {
		"i do", "i take", "i use", "i practice", "i exercise", "i call",
		"i scheduled", "i started", "i stopped", "i changed", "i ask",
		"i asked", "working on", "trying to", "plan to", "i walk",
		"i stretch",
	},
}

// scoreFromRubric scores free text on the four self-report axes. The second
// return distinguishes a strong result (enough keyword signal to stand on
// its own) from a weak one the chain should only use if the AI fallback
// also fails.
func scoreFromRubric(text string) (ScoreResult, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ScoreResult{}, false
	}

	axisHits := map[string]int{}
	totalHits := 0
	axesTouched := 0
	for axis, family := range rubricAxes {
		hits := overlapCount(text, family)
		if hits > axisMax {
			hits = axisMax
		}
		axisHits[axis] = hits
		totalHits += hits
		if hits > 0 {
			axesTouched++
		}
	}

	raw := float64(axisHits[axisAwareness] + axisHits[axisUnderstanding] + axisHits[axisCoping] + axisHits[axisAction])
	score := types.ClampScore(raw / rubricRawMax * types.ScoreMax)

	strong := axesTouched >= 2 || totalHits >= 3
	confidence := rubricWeakConf
	rationale := "rubric: limited keyword signal"
	if strong {
		// Confidence grows with axis coverage, topping out at 0.8.
		confidence = types.ClampConfidence(rubricStrongOK + 0.0625*float64(totalHits))
		if confidence > 0.8 {
			confidence = 0.8
		}
		rationale = "rubric: " + formatAxisHits(axisHits)
	}

	return ScoreResult{
		Score:      score,
		Confidence: confidence,
		Method:     string(types.MethodRuleBased),
		Rationale:  rationale,
	}, strong
}

func formatAxisHits(hits map[string]int) string {
	axes := make([]string, 0, len(hits))
	for axis := range hits {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	parts := make([]string, 0, len(axes))
	for _, axis := range axes {
		parts = append(parts, fmt.Sprintf("%s=%d", axis, hits[axis]))
	}
	return strings.Join(parts, " ")
}
